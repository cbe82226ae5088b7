package normalize

import (
	"strings"

	"proposal_sync/platform/phone"
)

// Kind selects the coercion applied to a resolved value.
type Kind int

const (
	KindText Kind = iota
	KindDate
	KindFlag
	KindDigits
	KindUF
	KindID
)

// Field maps one canonical column to its candidate locations.
type Field struct {
	Column string
	Kind   Kind
	From   []Candidate
	// Derive is consulted when no candidate yields a usable value.
	Derive func(s *Sources) (any, bool)
	// Default applies when nothing resolves.
	Default string
}

var (
	item    = []Location{LocItem}
	dates   = []Location{LocDates}
	api     = []Location{LocAPI}
	bank    = []Location{LocBank}
	prop    = []Location{LocProposal}
	cli     = []Location{LocClient}
	addr    = []Location{LocAddress}
	phoneAt = []Location{LocPhone}
)

func join(groups ...[]Candidate) []Candidate {
	var out []Candidate
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func locs(l ...Location) []Location { return l }

var (
	dddKeys    = []string{"ddd", "telefone_ddd", "prefixo", "prefix", "area", "ddd_telefone"}
	numberKeys = []string{"numero", "telefone", "telefone_numero", "numero_telefone", "celular", "fone", "numeroTelefone"}

	statusNome   = At(locs(LocItem, LocAPI, LocProposal), "status_nome", "statusNome", "status_name", "statusDescricao")
	idPropBanco  = At(locs(LocProposal, LocItem), "id_proposta_banco", "proposta_id_banco", "idPropostaBanco")
	paymentDate  = At(locs(LocDates, LocProposal, LocItem), "data_pagamento", "pagamento", "dataPagamento")
	cadastroDate = At(dates, "cadastro")
)

// Fields is the canonical attribute mapping, one entry per column.
var Fields = []Field{
	{Column: "data_formalizacao", Kind: KindDate, From: At(locs(LocDates, LocProposal, LocItem), "data_formalizacao", "formalizacao", "dataFormalizacao")},
	{Column: "data_cadastro", Kind: KindDate, From: cadastroDate},
	{Column: "cadastro", Kind: KindDate, From: cadastroDate},
	{Column: "data_pagamento", Kind: KindDate, From: paymentDate},
	{Column: "pagamento", Kind: KindDate, From: paymentDate},
	{Column: "data_status_api", Kind: KindDate, From: At(locs(LocAPI, LocProposal, LocItem), "data_status_api", "dataStatusApi", "data_status", "dataStatus")},
	{Column: "data_atualizacao_api", Kind: KindDate, From: At(api, "data_atualizacao_api")},
	{Column: "dt_ultima_tentativa_api", Kind: KindDate, From: At(api, "dt_ultima_tentativa_api")},
	{Column: "status_api", Kind: KindText, From: At(api, "status_api")},
	{Column: "status_api_descricao", Kind: KindText, From: join(At(api, "status_api_descricao"), statusNome)},
	{Column: "banco_averbacao", Kind: KindText, From: At(bank, "banco_averbacao"), Default: "0"},
	{Column: "agencia", Kind: KindText, From: At(bank, "agencia")},
	{Column: "agencia_digito", Kind: KindDigits, From: At(bank, "agencia_digito", "agencia_dv", "agenciaDv", "agenciaDigito")},
	{Column: "conta", Kind: KindText, From: At(bank, "conta")},
	{Column: "conta_digito", Kind: KindText, From: At(bank, "conta_digito")},
	{Column: "pix", Kind: KindFlag, From: At(bank, "pix")},
	{Column: "tipo_liberacao", Kind: KindText, From: At(bank, "tipo_liberacao")},
	{Column: "inclusao", Kind: KindDate, From: At(dates, "inclusao")},
	{Column: "cancelado", Kind: KindDate, From: At(dates, "cancelado")},
	{Column: "concluido", Kind: KindDate, From: At(dates, "concluido")},
	{Column: "averbacao", Kind: KindDate, From: At(dates, "averbacao")},
	{Column: "retorno_saldo", Kind: KindDate, From: At(dates, "retorno_saldo")},
	{Column: "banco_id", Kind: KindText, From: At(prop, "banco_id")},
	{Column: "banco_nome", Kind: KindText, From: At(prop, "banco_nome")},
	{Column: "convenio_id", Kind: KindText, From: At(prop, "convenio_id")},
	{Column: "convenio_nome", Kind: KindText, From: At(prop, "convenio_nome")},
	{Column: "link_formalizacao", Kind: KindText, From: At(prop, "link_formalizacao")},
	{Column: "orgao", Kind: KindText, From: At(prop, "orgao")},
	{Column: "prazo", Kind: KindText, From: At(prop, "prazo")},
	{Column: "promotora_id", Kind: KindText, From: At(prop, "promotora_id")},
	{Column: "promotora_nome", Kind: KindText, From: At(prop, "promotora_nome")},
	{Column: "produto_id", Kind: KindText, From: At(prop, "produto_id")},
	{Column: "produto_nome", Kind: KindText, From: At(prop, "produto_nome")},
	{Column: "proposta_id", Kind: KindID, From: At(prop, "proposta_id")},
	{Column: "proposta_id_banco", Kind: KindText, From: join(At(prop, "proposta_id_banco"), idPropBanco)},
	{Column: "proposta_reference_api", Kind: KindText, From: At(prop, "proposta_reference_api")},
	{Column: "valor_financiado", Kind: KindText, From: At(prop, "valor_financiado")},
	{Column: "valor_liberado", Kind: KindText, From: At(prop, "valor_liberado")},
	{Column: "valor_parcela", Kind: KindText, From: At(prop, "valor_parcela")},
	{Column: "valor_referencia", Kind: KindText, From: At(prop, "valor_referencia")},
	{Column: "valor_meta", Kind: KindText, From: At(prop, "valor_meta")},
	{Column: "valor_total_comissionado", Kind: KindText, From: At(prop, "valor_total_comissionado")},
	{Column: "valor_total_repassado_vendedor", Kind: KindText, From: At(prop, "valor_total_repassado_vendedor")},
	{Column: "valor_total_estornado", Kind: KindText, From: At(prop, "valor_total_estornado")},
	{Column: "valor_total_comissao_liq", Kind: KindText, From: At(prop, "valor_total_comissao_liq")},
	{Column: "valor_total_comissao_franquia", Kind: KindText, From: At(prop, "valor_total_comissao_franquia")},
	{Column: "valor_total_repasse_franquia", Kind: KindText, From: At(prop, "valor_total_repasse_franquia")},
	{Column: "tabela_id", Kind: KindText, From: At(prop, "tabela_id")},
	{Column: "tabela_nome", Kind: KindText, From: At(prop, "tabela_nome")},
	{Column: "flag_aumento", Kind: KindFlag, From: At(prop, "flag_aumento")},
	{Column: "srcc", Kind: KindFlag, From: At(prop, "srcc")},
	{Column: "seguro", Kind: KindFlag, From: At(prop, "seguro")},
	{Column: "proposta_duplicada", Kind: KindFlag, From: At(prop, "proposta_duplicada")},
	{Column: "taxa", Kind: KindText, From: At(prop, "taxa")},
	{Column: "usuariobanco", Kind: KindText, From: At(locs(LocProposal, LocAPI, LocItem), "usuariobanco", "usuario_banco", "usuarioBanco")},
	{Column: "franquia_id", Kind: KindText, From: At(prop, "franquia_id")},
	{Column: "indicacao_id", Kind: KindText, From: At(locs(LocItem, LocProposal), "indicacao_id", "indicacaoId", "id_indicacao")},
	{Column: "enviado_quali", Kind: KindFlag, From: At(locs(LocProposal, LocItem), "enviado_quali", "enviando_quali", "enviadoQuali", "enviandoQuali")},
	{Column: "equipe_id", Kind: KindText, From: At(item, "equipe_id")},
	{Column: "equipe_nome", Kind: KindText, From: At(item, "equipe_nome")},
	{Column: "franquia_nome", Kind: KindText, From: At(item, "franquia_nome")},
	{Column: "origem", Kind: KindText, From: At(item, "origem")},
	{Column: "origem_id", Kind: KindText, From: At(item, "origem_id")},
	{Column: "status_id", Kind: KindText, From: At(item, "status_id")},
	{Column: "substatus", Kind: KindText, From: At(locs(LocItem, LocAPI, LocProposal), "substatus", "subStatus", "sub_status", "status_sub")},
	{Column: "status_nome", Kind: KindText, From: statusNome},
	{Column: "tipo_cadastro", Kind: KindText, From: At(item, "tipo_cadastro")},
	{Column: "usuario_id", Kind: KindText, From: At(item, "usuario_id")},
	{Column: "vendedor_nome", Kind: KindText, From: At(item, "vendedor_nome")},
	{Column: "vendedor_id", Kind: KindText, From: At(item, "vendedor_id")},
	{Column: "digitador_id", Kind: KindText, From: At(item, "digitador_id")},
	{Column: "digitador_nome", Kind: KindText, From: At(item, "digitador_nome")},
	{Column: "vendedor_cargo_id", Kind: KindText, From: At(item, "vendedor_cargo_id")},
	{Column: "vendedor_participante", Kind: KindFlag, From: At(locs(LocItem, LocProposal), "vendedor_participante", "vendedorParticipante", "vendedor_secundario", "vendedorSecundario")},
	{Column: "vendedor_participante_nome", Kind: KindText, From: At(locs(LocItem, LocProposal), "vendedor_participante_nome", "vendedorParticipanteNome", "nome_vendedor_participante")},
	{Column: "formalizador", Kind: KindText, From: At(locs(LocItem, LocProposal), "formalizador", "formalizador_id", "formalizadorId")},
	{Column: "formalizador_nome", Kind: KindText, From: At(locs(LocItem, LocProposal), "formalizador_nome", "formalizadorNome", "nome_formalizador")},
	{Column: "cliente_id", Kind: KindText, From: At(cli, "cliente_id")},
	{Column: "cliente_cpf", Kind: KindText, From: At(cli, "cliente_cpf", "cpf", "documento")},
	{Column: "cliente_sexo", Kind: KindText, From: At(cli, "cliente_sexo")},
	{Column: "nascimento", Kind: KindDate, From: At(cli, "nascimento")},
	{Column: "analfabeto", Kind: KindFlag, From: At(cli, "analfabeto")},
	{Column: "nao_perturbe", Kind: KindFlag, From: At(cli, "nao_perturbe")},
	{Column: "cliente_nome", Kind: KindText, From: At(cli, "cliente_nome")},
	{Column: "cep", Kind: KindDigits, From: join(At(cli, "cep"), At(addr, "cep"))},
	{Column: "cidade", Kind: KindText, From: join(At(cli, "cidade"), At(addr, "cidade", "municipio"))},
	{Column: "estado", Kind: KindUF, From: join(At(cli, "estado"), At(addr, "estado"), At(cli, "uf"))},
	{Column: "telefone_id", Kind: KindText, From: At(cli, "telefone_id")},
	{Column: "documento_id", Kind: KindText, From: At(cli, "documento_id")},
	{Column: "beneficio_id", Kind: KindText, From: At(cli, "beneficio_id")},
	{Column: "endereco_id", Kind: KindText, From: At(cli, "endereco_id")},
	{Column: "matricula", Kind: KindText, From: At(cli, "matricula", "beneficio")},
	{Column: "nome_mae", Kind: KindText, From: At(cli, "nome_mae")},
	{Column: "renda", Kind: KindText, From: At(cli, "renda")},
	{Column: "especie", Kind: KindText, From: At(cli, "especie")},
	{Column: "ddb", Kind: KindText, From: At(cli, "ddb")},
	{Column: "possui_representante", Kind: KindFlag, From: At(cli, "possui_representante")},
	{Column: "logradouro", Kind: KindText, From: At(addr, "logradouro")},
	{Column: "endereco_numero", Kind: KindText, From: At(addr, "endereco_numero")},
	{Column: "bairro", Kind: KindText, From: At(addr, "bairro")},
	{Column: "telefone_ddd", Kind: KindDigits, From: At(phoneAt, dddKeys...), Derive: dddFromNumber},
	{Column: "telefone_numero", Kind: KindDigits, From: At(phoneAt, numberKeys...)},
	{
		Column: "banco_refinanciador",
		Kind:   KindText,
		From: At(locs(LocProposal, LocBank, LocItem),
			"banco_refinanciador", "bancoRefinanciador",
			"banco_refinanciador_nome", "bancoRefinanciadorNome",
			"banco_refinanciado", "banco_original",
			"banco_ref", "bancoRef", "banco_refin", "banco_refi", "banco_nome", "bancoNome", "banco"),
		Derive: refinancingBank,
	},
	{Column: "beneficio", Kind: KindText, From: At(locs(LocClient, LocItem, LocProposal), "beneficio", "beneficio_id", "beneficioId")},
	{Column: "id_proposta_banco", Kind: KindText, From: idPropBanco},
}

// dddFromNumber recovers the area code from a full national number when
// the phone entry carries no separate DDD.
func dddFromNumber(s *Sources) (any, bool) {
	raw, ok := s.First(At(phoneAt, numberKeys...))
	if !ok {
		return nil, false
	}
	text, ok := Text(raw)
	if !ok {
		return nil, false
	}
	ddd, _, ok := phone.SplitDDD(text)
	if !ok {
		return nil, false
	}
	return ddd, true
}

// refinancingBank scans contracts that look like a refinancing, then the
// commission block.
func refinancingBank(s *Sources) (any, bool) {
	root := s.Map(LocItem)
	if contracts, ok := root["contratos"].([]any); ok {
		for _, raw := range contracts {
			c, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			var mark strings.Builder
			for _, k := range []string{"tipo", "finalidade", "descricao", "operacao"} {
				if v, ok := Text(c[k]); ok {
					mark.WriteString(strings.ToLower(v))
					mark.WriteByte(' ')
				}
			}
			if !strings.Contains(mark.String(), "refin") {
				continue
			}
			if v, ok := firstIn(c, "banco_refinanciador", "banco", "banco_nome", "bancoNome"); ok {
				return v, true
			}
		}
	}
	if comm, ok := root["comissionamento"].(map[string]any); ok {
		return firstIn(comm, "banco_refinanciador", "banco", "banco_nome")
	}
	return nil, false
}

func firstIn(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && !isEmpty(v) {
			return v, true
		}
	}
	return nil, false
}
