package extract

// extractionPrompt is the fixed instruction sent with every statement. The
// backend must return only incoming funds, skip transfers inside the same
// household, and answer with strict JSON in the "transacoes" shape. Field
// names stay in Portuguese because they are the wire contract with the
// model; prompts in the statement's own language extract noticeably better
// on Brazilian bank layouts.
const extractionPrompt = `Analise este extrato bancário e extraia APENAS as ENTRADAS.

REGRAS:
- IGNORE transferências entre contas do mesmo titular
- IGNORE transferências de família (mãe, pai, irmão, irmã)
- CONSIDERE apenas: salários, rendimentos, vendas, recebimentos

Retorne JSON:
{
  "transacoes": [
    {"data": "YYYY-MM-DD", "descricao": "texto", "valor": 1234.56}
  ]
}

IMPORTANTE:
- Valores sem R$ ou pontos (ex: 1234.56)
- Data formato YYYY-MM-DD
- Retorne APENAS o JSON`
