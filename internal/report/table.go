package report

import (
	"fmt"
	"io"
	"strings"
)

// Column widths are part of the report contract and never change.
const (
	rowFormat  = "%-22s %-15s %-12d %-50s %-30s %-15s %-12s\n"
	headFormat = "%-22s %-15s %-12s %-50s %-30s %-15s %-12s\n"
	ruleWidth  = 157
)

// WritePreamble prints the console opening lines before the search runs.
func WritePreamble(w io.Writer, window Window) {
	fmt.Fprintln(w, "Начинаю поиск заказов с услугами биолога...")
	fmt.Fprintf(w, "Ищу заказы с услугами биолога за период с %s по %s...\n",
		window.Start.Format("02.01.2006 15:04"), window.End.Format("02.01.2006 15:04"))
}

// WriteHeader prints the table title block.
func WriteHeader(w io.Writer) {
	fmt.Fprintln(w, "\n--- Найденные заказы с услугами биолога ---")
	fmt.Fprintf(w, headFormat,
		"Время создания заказа", "External ID", "CRM ID", "Ссылка на заказ", "Ответственный", "Сумма услуги", "Дата выезда")
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
}

// WriteRow prints one matched order.
func WriteRow(w io.Writer, row Row) {
	fmt.Fprintf(w, rowFormat,
		row.CreatedAt,
		row.ExternalID,
		row.InternalID,
		row.Link,
		row.Manager,
		row.Price.StringFixed(2),
		row.VisitDate,
	)
}

// WriteFooter prints the closing rule and the total count.
func WriteFooter(w io.Writer, matched int) {
	if matched == 0 {
		fmt.Fprintln(w, "За указанный период не найдено ни одного заказа, содержащего услуги 'Выезд биолога'.")
		return
	}
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	fmt.Fprintf(w, "Всего найдено заказов с услугами биолога: %d\n", matched)
}

// WriteTable prints the full report block for a finished run.
func WriteTable(w io.Writer, summary *Summary) {
	WriteHeader(w)
	for _, row := range summary.Rows {
		WriteRow(w, row)
	}
	WriteFooter(w, summary.Matched)
}
