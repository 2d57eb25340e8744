package classifier

import (
	"reflect"
	"testing"
)

func TestExtractURLs(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []string
	}{
		{
			"single url",
			"Aproveita: https://loja.example.com/oferta/123",
			[]string{"https://loja.example.com/oferta/123"},
		},
		{
			"trailing period stripped",
			"Corre lá https://loja.example.com/oferta.",
			[]string{"https://loja.example.com/oferta"},
		},
		{
			"parenthesized url",
			"(detalhes em https://ex.com/p/9),",
			[]string{"https://ex.com/p/9"},
		},
		{
			"query string kept",
			"https://ex.com/busca?q=tv&sort=1 termina hoje",
			[]string{"https://ex.com/busca?q=tv&sort=1"},
		},
		{
			"trailing question mark stripped",
			"Já viram https://ex.com/p/1?",
			[]string{"https://ex.com/p/1"},
		},
		{
			"multiple urls",
			"http://a.example.com e também https://b.example.com/x",
			[]string{"http://a.example.com", "https://b.example.com/x"},
		},
		{"no urls", "nenhum link por aqui", nil},
		{"empty", "", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractURLs(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExtractURLs(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestMergeLink(t *testing.T) {
	urls := []string{"https://a.com", "https://b.com"}

	merged := MergeLink(urls, "https://c.com")
	if len(merged) != 3 || merged[2] != "https://c.com" {
		t.Fatalf("expected link appended, got %v", merged)
	}

	same := MergeLink(urls, "https://a.com")
	if len(same) != 2 {
		t.Fatalf("expected duplicate link ignored, got %v", same)
	}

	if got := MergeLink(urls, ""); len(got) != 2 {
		t.Fatalf("expected empty link ignored, got %v", got)
	}

	if got := MergeLink(nil, "https://only.com"); len(got) != 1 || got[0] != "https://only.com" {
		t.Fatalf("expected link on empty list, got %v", got)
	}
}
