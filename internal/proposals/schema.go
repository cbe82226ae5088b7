// Package proposals defines the canonical proposal row shared by the
// normalizer, the staging merger and the target table.
package proposals

const (
	// TargetTable is the durable table every window is merged into.
	TargetTable = "cadastrados"
	// StagingTable is the session-scoped table a window is staged in.
	StagingTable = "cadastrados_stage"

	// TextMaxLen bounds every text attribute.
	TextMaxLen = 4000
	// KeyMaxLen bounds the proposal identifier so it stays indexable.
	KeyMaxLen = 450

	// ColPartner carries the partner affiliation.
	ColPartner = "empresa"
	// ColProposalID is the opaque proposal identifier.
	ColProposalID = "proposta_id"
)

// Columns is the canonical column order of target and staging tables.
var Columns = []string{
	"empresa",
	"data_formalizacao",
	"data_cadastro",
	"cadastro",
	"data_pagamento",
	"pagamento",
	"data_status_api",
	"data_atualizacao_api",
	"dt_ultima_tentativa_api",
	"status_api",
	"status_api_descricao",
	"banco_averbacao",
	"agencia",
	"agencia_digito",
	"conta",
	"conta_digito",
	"pix",
	"tipo_liberacao",
	"inclusao",
	"cancelado",
	"concluido",
	"averbacao",
	"retorno_saldo",
	"banco_id",
	"banco_nome",
	"convenio_id",
	"convenio_nome",
	"link_formalizacao",
	"orgao",
	"prazo",
	"promotora_id",
	"promotora_nome",
	"produto_id",
	"produto_nome",
	"proposta_id",
	"proposta_id_banco",
	"proposta_reference_api",
	"valor_financiado",
	"valor_liberado",
	"valor_parcela",
	"valor_referencia",
	"valor_meta",
	"valor_total_comissionado",
	"valor_total_repassado_vendedor",
	"valor_total_estornado",
	"valor_total_comissao_liq",
	"valor_total_comissao_franquia",
	"valor_total_repasse_franquia",
	"tabela_id",
	"tabela_nome",
	"flag_aumento",
	"srcc",
	"seguro",
	"proposta_duplicada",
	"taxa",
	"usuariobanco",
	"franquia_id",
	"indicacao_id",
	"enviado_quali",
	"equipe_id",
	"equipe_nome",
	"franquia_nome",
	"origem",
	"origem_id",
	"status_id",
	"substatus",
	"status_nome",
	"tipo_cadastro",
	"usuario_id",
	"vendedor_nome",
	"vendedor_id",
	"digitador_id",
	"digitador_nome",
	"vendedor_cargo_id",
	"vendedor_participante",
	"vendedor_participante_nome",
	"formalizador",
	"formalizador_nome",
	"cliente_id",
	"cliente_cpf",
	"cliente_sexo",
	"nascimento",
	"analfabeto",
	"nao_perturbe",
	"cliente_nome",
	"cep",
	"cidade",
	"estado",
	"telefone_id",
	"documento_id",
	"beneficio_id",
	"endereco_id",
	"matricula",
	"nome_mae",
	"renda",
	"especie",
	"ddb",
	"possui_representante",
	"logradouro",
	"endereco_numero",
	"bairro",
	"telefone_ddd",
	"telefone_numero",
	"banco_refinanciador",
	"beneficio",
	"id_proposta_banco",
}

// MergeKeyColumns identify a proposal for upsert purposes, in key order.
var MergeKeyColumns = []string{
	"data_formalizacao",
	"data_cadastro",
	"cadastro",
	"data_pagamento",
	"pagamento",
	"proposta_id",
}

// DateColumns hold calendar dates rendered as YYYY-MM-DD.
var DateColumns = []string{
	"data_formalizacao",
	"data_cadastro",
	"cadastro",
	"data_pagamento",
	"pagamento",
	"data_status_api",
	"data_atualizacao_api",
	"dt_ultima_tentativa_api",
	"inclusao",
	"cancelado",
	"concluido",
	"averbacao",
	"retorno_saldo",
	"nascimento",
}

// FlagColumns hold tri-state flags: "1", "0" or null.
var FlagColumns = []string{
	"flag_aumento",
	"srcc",
	"seguro",
	"proposta_duplicada",
	"enviado_quali",
	"analfabeto",
	"nao_perturbe",
	"possui_representante",
	"vendedor_participante",
	"pix",
}

// LengthLimits bound the digit-only columns and the two-letter state code.
// Free text columns are never cut below TextMaxLen.
var LengthLimits = map[string]int{
	"estado":          2,
	"cep":             8,
	"telefone_ddd":    4,
	"telefone_numero": 20,
	"agencia_digito":  5,
}

var columnIndex = func() map[string]int {
	idx := make(map[string]int, len(Columns))
	for i, c := range Columns {
		idx[c] = i
	}
	return idx
}()

// ColumnIndex returns the position of col in Columns.
func ColumnIndex(col string) (int, bool) {
	i, ok := columnIndex[col]
	return i, ok
}

// MaxLen returns the maximum stored length for col.
func MaxLen(col string) int {
	if col == ColProposalID {
		return KeyMaxLen
	}
	if n, ok := LengthLimits[col]; ok {
		return n
	}
	return TextMaxLen
}

// StorageLen is the declared column width in target and staging tables.
func StorageLen(col string) int {
	if col == ColProposalID {
		return KeyMaxLen
	}
	return TextMaxLen
}

// IsDateColumn reports whether col holds a calendar date.
func IsDateColumn(col string) bool {
	return contains(DateColumns, col)
}

// IsFlagColumn reports whether col holds a tri-state flag.
func IsFlagColumn(col string) bool {
	return contains(FlagColumns, col)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
