package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/magalhaesnegocios/renda-pro/internal/statement"
)

const (
	fenceTagged  = "```json"
	fenceGeneric = "```"
)

// wireTransaction mirrors one element of the "transacoes" array as the
// model emits it. Pointer fields distinguish absent keys from zero values
// so required-field violations surface as schema errors, not as silent
// zeroes.
type wireTransaction struct {
	Data      *string      `json:"data"`
	Descricao *string      `json:"descricao"`
	Valor     *json.Number `json:"valor"`
}

// ParseTransactions locates the JSON payload inside raw model output and
// validates it into transactions. An absent or empty "transacoes" list is
// a valid result: a statement with no qualifying entries yields zero
// transactions, and whether that is acceptable is the aggregator's call.
func ParseTransactions(raw string) ([]statement.Transaction, error) {
	payload := locateJSON(raw)

	// Top level must be a JSON object; decoding into raw members lets us
	// tell malformed text apart from a well-formed object of the wrong
	// shape.
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(payload), &top); err != nil {
		if !json.Valid([]byte(payload)) {
			return nil, &statement.ParseError{Kind: statement.ParseMalformedJSON, Err: err}
		}
		return nil, &statement.ParseError{
			Kind:   statement.ParseSchemaMismatch,
			Detail: "top-level value is not an object",
		}
	}

	rawList, ok := top["transacoes"]
	if !ok {
		return nil, &statement.ParseError{
			Kind:   statement.ParseSchemaMismatch,
			Detail: `missing "transacoes" key`,
		}
	}

	// null is treated like an absent list.
	if string(rawList) == "null" {
		return []statement.Transaction{}, nil
	}

	dec := json.NewDecoder(strings.NewReader(string(rawList)))
	dec.UseNumber()
	var wire []wireTransaction
	if err := dec.Decode(&wire); err != nil {
		return nil, &statement.ParseError{
			Kind:   statement.ParseSchemaMismatch,
			Detail: `"transacoes" is not an array of objects`,
			Err:    err,
		}
	}

	txs := make([]statement.Transaction, 0, len(wire))
	for i, w := range wire {
		tx, err := validateWireTransaction(i, w)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// validateWireTransaction enforces the transaction invariants at the trust
// boundary: required fields present, amount a strictly positive number
// with at most two fractional digits.
func validateWireTransaction(i int, w wireTransaction) (statement.Transaction, error) {
	schemaErr := func(format string, args ...interface{}) error {
		return &statement.ParseError{
			Kind:   statement.ParseSchemaMismatch,
			Detail: fmt.Sprintf("transaction %d: %s", i, fmt.Sprintf(format, args...)),
		}
	}

	if w.Data == nil || strings.TrimSpace(*w.Data) == "" {
		return statement.Transaction{}, schemaErr(`missing required field "data"`)
	}
	if w.Descricao == nil || strings.TrimSpace(*w.Descricao) == "" {
		return statement.Transaction{}, schemaErr(`missing required field "descricao"`)
	}
	if w.Valor == nil {
		return statement.Transaction{}, schemaErr(`missing required field "valor"`)
	}

	amount, err := decimal.NewFromString(w.Valor.String())
	if err != nil {
		return statement.Transaction{}, schemaErr(`field "valor" is not a number: %v`, err)
	}
	if !amount.IsPositive() {
		return statement.Transaction{}, schemaErr(`field "valor" must be positive, got %s`, amount)
	}
	if amount.Exponent() < -2 {
		return statement.Transaction{}, schemaErr(`field "valor" has more than 2 fractional digits: %s`, amount)
	}

	return statement.Transaction{
		Date:        strings.TrimSpace(*w.Data),
		Description: strings.TrimSpace(*w.Descricao),
		Amount:      amount,
	}, nil
}

// locateJSON pulls the JSON payload out of free-form model text. A fence
// explicitly tagged as JSON wins over any generic fence, which wins over
// treating the whole text as JSON. The payload is the substring between
// the first fence-open and the next fence-close after it; a missing close
// runs to the end of the text.
func locateJSON(raw string) string {
	if idx := strings.Index(raw, fenceTagged); idx != -1 {
		return cutAtFenceClose(raw[idx+len(fenceTagged):])
	}
	if idx := strings.Index(raw, fenceGeneric); idx != -1 {
		return cutAtFenceClose(raw[idx+len(fenceGeneric):])
	}
	return strings.TrimSpace(raw)
}

func cutAtFenceClose(s string) string {
	if end := strings.Index(s, fenceGeneric); end != -1 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}
