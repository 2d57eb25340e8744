package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dealradar/promo-monitor/internal/pkg/httputil"
)

// stubMessage mirrors the gateway's message payload.
type stubMessage struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Text       string    `json:"text"`
	MediaType  string    `json:"media_type"`
	Date       time.Time `json:"date"`
}

// stubChat mirrors the gateway's chat metadata payload.
type stubChat struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

var knownChats = map[int64]stubChat{
	-1001622757657: {ID: -1001622757657, Title: "Promoções Relâmpago BR", Username: "promorelampagobr"},
	-1001234567890: {ID: -1001234567890, Title: "Achados & Descontos", Username: "achadosdescontos"},
}

// seedMessages returns the canned feed, ascending by id. Texts cover the
// shapes the pipeline cares about: product offers with prices, coupon
// posts, chatter that the pre-filter should skip, and a media-only row.
func seedMessages(now time.Time) []stubMessage {
	texts := []struct {
		sender string
		text   string
		media  string
	}{
		{"Ofertas Bot", "bom dia grupo! hoje tem live de achados às 19h", ""},
		{"Ofertas Bot", "🔥 OFERTA RELÂMPAGO! Echo Dot 5ª geração por R$ 279,00 (de R$ 429,00) na Amazon https://amzn.example/q3k7x", ""},
		{"", "Cupom BELEZA20 dá 20% OFF em toda a loja — válido até domingo, compras acima de R$ 150. https://loja.example/beleza", ""},
		{"Ofertas Bot", "", "photo"},
		{"Ofertas Bot", "Fone Bluetooth JBL Tune 510BT por R$ 199,90 no Pix 👉 https://magalu.example/jbl510", ""},
		{"", "Cupom PRIMEIRA10: R$ 10 de desconto na primeira compra, pedido mínimo R$ 50. Aproveita! https://loja.example/primeira", ""},
		{"Ofertas Bot", "alguém sabe se o frete tá grátis pra SP?", ""},
		{"Ofertas Bot", "⚡ Smart TV 50\" 4K Samsung: de R$ 2.899 por R$ 2.199 com o cupom TV700. Só hoje! https://amzn.example/tv50", ""},
	}

	msgs := make([]stubMessage, 0, len(texts))
	for i, t := range texts {
		var senderID int64
		if t.sender != "" {
			senderID = 777000 + int64(i)
		}
		msgs = append(msgs, stubMessage{
			ID:         1001 + int64(i),
			SenderID:   senderID,
			SenderName: t.sender,
			Text:       t.text,
			MediaType:  t.media,
			Date:       now.Add(-time.Duration(len(texts)-i) * 7 * time.Minute),
		})
	}
	return msgs
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  WARNING: This is a STUB GATEWAY for local testing ONLY.  ║")
	log.Println("║  All chats and messages are HARDCODED fixtures.           ║")
	log.Println("║                                                           ║")
	log.Println("║  Message ids are fixed, so once the monitor's watermark   ║")
	log.Println("║  passes them polls come back empty. Delete                ║")
	log.Println("║  last_processed_ids.json to replay the feed.              ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")
	log.Println("")
	log.Println("Starting stub MTProto gateway (hardcoded responses)...")

	token := os.Getenv("STUB_GATEWAY_TOKEN")
	if token == "" {
		log.Println("STUB_GATEWAY_TOKEN not set — accepting unauthenticated requests")
	}

	feed := seedMessages(time.Now().UTC())

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(bearerAuth(token))

		r.Post("/session/connect", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				APIID   int    `json:"api_id"`
				APIHash string `json:"api_hash"`
				Phone   string `json:"phone"`
			}
			if !httputil.Decode(w, req, &body) {
				return
			}
			log.Printf("connect: api_id=%d phone=%s", body.APIID, body.Phone)
			httputil.OK(w, map[string]any{"authorized": true, "session": "stub-session"})
		})

		r.Post("/session/disconnect", func(w http.ResponseWriter, req *http.Request) {
			httputil.OK(w, map[string]any{"status": "disconnected"})
		})

		r.Get("/chats/{chatID}", func(w http.ResponseWriter, req *http.Request) {
			chatID, err := strconv.ParseInt(chi.URLParam(req, "chatID"), 10, 64)
			if err != nil {
				httputil.BadRequest(w, "chat id must be an integer")
				return
			}
			chat, ok := knownChats[chatID]
			if !ok {
				// Any id works so CHAT_IDS in local config never 404s.
				chat = stubChat{ID: chatID, Title: "Canal de Ofertas (stub)"}
			}
			httputil.OK(w, chat)
		})

		r.Get("/chats/{chatID}/messages", func(w http.ResponseWriter, req *http.Request) {
			if _, err := strconv.ParseInt(chi.URLParam(req, "chatID"), 10, 64); err != nil {
				httputil.BadRequest(w, "chat id must be an integer")
				return
			}
			minID, _ := strconv.ParseInt(req.URL.Query().Get("min_id"), 10, 64)
			limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

			// Real gateway pages newest-first; the client reverses.
			page := make([]stubMessage, 0, len(feed))
			for _, m := range feed {
				if m.ID > minID {
					page = append(page, m)
				}
			}
			sort.Slice(page, func(i, j int) bool { return page[i].ID > page[j].ID })
			if limit > 0 && len(page) > limit {
				page = page[:limit]
			}
			httputil.OK(w, map[string]any{"messages": page})
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Stub gateway listening on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down stub gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Stub gateway stopped")
}

// bearerAuth rejects requests without the expected token. An empty token
// disables the check for quick local runs.
func bearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				httputil.Unauthorized(w, "missing or invalid bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
