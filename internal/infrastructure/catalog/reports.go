package catalog

import (
	"time"

	"portal-exporter/internal/domain/entity"
)

const (
	PurchaseOrders   = "purchase-orders"
	FinanceDocuments = "finance-documents"
)

const (
	modalPushRefuse   = "a#pushActionRefuse"
	modalNotShowAgain = "a.lnkNotShowAgain"
	filterPanel       = "span.barra-filtro-pesquisa-texto"
)

func purchaseOrders(day string) entity.ReportDefinition {
	const delivered = "#cphPesquisa_ucSBRS_chkPurchaseDateDelivered"

	return entity.ReportDefinition{
		Name:        PurchaseOrders,
		Description: "Purchase orders delivered on the business date",
		ViewPath:    "/compras/ordens-de-compra",
		Modals:      []string{modalPushRefuse, modalNotShowAgain},
		Filter: entity.NewFilterSpec(filterPanel,
			entity.Checkbox("delivered-date filter", delivered, labelFor(delivered), true),
			entity.DateText("date from", "#cphPesquisa_ucSBRS_txtPurchaseDateFrom", day),
			entity.DateText("date to", "#cphPesquisa_ucSBRS_txtPurchaseDateEnd", day),
		),
		Export: entity.ExportRequest{
			SearchSelector:       "a.lnkSearch",
			ResultsReadySelector: "#cphConteudo_lnkExportarOrdemCompra",
			ResultsTimeout:       25 * time.Second,
			TriggerSelector:      "#cphConteudo_lnkExportarOrdemCompra",
			MenuItemSelector:     "#cphConteudo_lnkGridExportCsvOrdemCompra",
			Format:               entity.FormatCSV,
			ExpectedFilenameStem: "ordens_de_compra",
		},
	}
}

func financeDocuments(day string) entity.ReportDefinition {
	const (
		dueDate   = "#cphPesquisa_chkDocumentosDataVencimento"
		issueDate = "#cphPesquisa_chkDocumentosDataEmissao"
		dateFrom  = "#cphPesquisa_txtDocumentosDataInicial"
		dateTo    = "#cphPesquisa_txtDocumentosDataFinal"
	)

	card := entity.Autocomplete("card BV", "BV", 16)
	card.FocusAnchor = dateTo
	card.ScrollToBottom = true

	return entity.ReportDefinition{
		Name:        FinanceDocuments,
		Description: "Financial documents issued on the business date, BV cards",
		ViewPath:    "/financeiro/documentos",
		Modals:      []string{modalPushRefuse},
		Filter: entity.NewFilterSpec(filterPanel,
			entity.Checkbox("due-date filter", dueDate, labelFor(dueDate), false),
			entity.Checkbox("issue-date filter", issueDate, labelFor(issueDate), true),
			entity.DateText("date from", dateFrom, day),
			entity.DateText("date to", dateTo, day),
			card,
			entity.Autocomplete("card BV (second)", "BV", 0),
		),
		Export: entity.ExportRequest{
			SearchSelector:       "a.lnkPesquisar",
			ResultsReadySelector: "a.btn_exportar",
			ResultsTimeout:       5 * time.Second,
			TriggerSelector:      "a.btn_exportar",
			MenuItemSelector:     "#cphConteudo_lnkExportCsvFinanceiro",
			Format:               entity.FormatCSV,
			ExpectedFilenameStem: "documentos_financeiro",
		},
	}
}

func labelFor(checkbox string) string {
	return "label[for='" + checkbox[1:] + "']"
}
