package classifier

import "strings"

// systemPrompt pins the model to JSON-only output; the response_format
// setting enforces it, the prompt makes the model cooperate with it.
const systemPrompt = "You are a helpful assistant designed to output structured JSON according to the user's instructions. Output ONLY the JSON object."

// extractionPromptTemplate instructs the model in Portuguese (the language
// of the monitored channels) to emit exactly one of three JSON shapes.
// Field names here must stay in sync with extractionPayload.
const extractionPromptTemplate = `
Analise a seguinte mensagem do Telegram e extraia informações sobre promoções, produtos ou cupons.
Responda APENAS com um objeto JSON. Não inclua NENHUM texto explicativo, introdução, ou qualquer coisa fora do objeto JSON.
O JSON deve seguir estritamente esta estrutura e tipos de dados.

Se a mensagem for sobre um PRODUTO específico em promoção:
Retorne um JSON com "type": "product_offer" e os seguintes campos (use null se não encontrar ou não aplicável):
- "product_name": (string) Nome do produto.
- "original_price": (float) Preço original do produto.
- "discounted_price": (float) Preço do produto com desconto.
- "store_name": (string, opcional) Nome da loja.
- "coupon_name": (string, opcional) Código do cupom, se aplicável à oferta do produto.
- "coupon_discount_value_amount": (float, opcional) Valor do desconto do cupom em reais.
- "coupon_discount_value_percentage": (float, opcional) Valor do desconto do cupom em porcentagem (ex: 10 para 10%).
- "minimum_purchase_value_for_coupon": (float, opcional) Compra mínima para o cupom, se ligado ao produto.
- "direct_discount_amount": (float, opcional) Desconto direto em reais (ex: "economize R$50").
- "direct_discount_percentage": (float, opcional) Desconto direto em porcentagem (ex: "25% OFF").
- "link": (string, opcional) Principal link da promoção do produto.

Se a mensagem for APENAS sobre um CUPOM de desconto (sem um produto específico):
Retorne um JSON com "type": "coupon_only" e os seguintes campos (use null se não encontrar ou não aplicável):
- "coupon_name": (string) Código do cupom.
- "discount_description": (string) Descrição do que o cupom oferece.
- "store_name": (string, opcional) Nome da loja onde o cupom é válido.
- "coupon_discount_value_amount": (float, opcional) Valor do desconto em reais (ex: "R$20 de desconto").
- "coupon_discount_value_percentage": (float, opcional) Valor do desconto em porcentagem (ex: "15% OFF").
- "minimum_purchase_value": (float, opcional) Compra mínima para usar o cupom.
- "maximum_purchase_value": (float, opcional) Compra máxima para usar o cupom.
- "maximum_discount_amount": (float, opcional) Desconto máximo que o cupom pode fornecer em reais.
- "applicable_to": (string, opcional) Onde o cupom se aplica (ex: "todo o site", "categoria X", "produtos selecionados", "primeira compra").
- "expiration_date": (string, opcional) Data de validade do cupom (formato AAAA-MM-DD se possível, ou texto original).
- "link": (string, opcional) Link para usar o cupom ou ver as regras.

Se a mensagem NÃO contiver informações claras sobre promoções, produtos com desconto ou cupons:
Retorne um JSON com "type": "irrelevant", "reason": "A mensagem não parece ser uma promoção ou cupom."

Instruções Adicionais para o JSON:
- Use ` + "`null`" + ` para campos não encontrados ou não aplicáveis. NÃO omita campos da estrutura base.
- Converta todos os valores monetários para números (float), removendo "R$", vírgulas de milhar e usando ponto como separador decimal.
- Se um produto tem preço "de X por Y", X é original_price e Y é discounted_price.
- Se um cupom diz "X% até R$Y", X é coupon_discount_value_percentage e Y é maximum_discount_amount.
- O campo "link" deve ser o link MAIS RELEVANTE para a oferta ou cupom.
- GARANTA QUE A SAÍDA SEJA APENAS O JSON, SEM TEXTO ADICIONAL.

Mensagem para análise:
"""
{message_text}
"""

Objeto JSON extraído:
`

// buildPrompt injects the message text into the extraction template.
func buildPrompt(text string) string {
	return strings.ReplaceAll(extractionPromptTemplate, "{message_text}", text)
}
