// Package contract renders loan contract PDFs from the Estonian LAENULEPING
// template used by the lender.
package contract

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/model"
)

// Data carries everything the contract template needs.
type Data struct {
	LenderName    string
	LenderAddress string
	ClientName    string
	ClientAddress string
	BirthNumber   string
	LoanAmount    float64
	DueDate       string // dd.mm.yyyy
}

// DataFromRecords builds the template data from the lender profile and the
// client's loan. The contract amount is the total amount due; the due date
// falls back to start + tenure when no next payment is scheduled.
func DataFromRecords(lender *model.Admin, client *model.Client) Data {
	lenderName := strings.TrimSpace(lender.FirstName + " " + lender.LastName)
	if lenderName == "" {
		lenderName = lender.Username
	}

	amount := client.TotalAmountDue
	if amount == 0 {
		amount = client.LoanAmount
	}

	dueDate := "N/A"
	if client.NextPaymentDue != nil {
		dueDate = client.NextPaymentDue.Format("02.01.2006")
	} else if client.LoanStartDate != nil && client.LoanTenureMonths > 0 {
		dueDate = client.LoanStartDate.AddDate(0, client.LoanTenureMonths, 0).Format("02.01.2006")
	}

	return Data{
		LenderName:    lenderName,
		LenderAddress: orNA(lender.Address),
		ClientName:    orNA(client.Name),
		ClientAddress: orNA(client.Address),
		BirthNumber:   orNA(client.BirthNumber),
		LoanAmount:    amount,
		DueDate:       dueDate,
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// Filename returns the download filename for a client's contract.
func Filename(clientName string) string {
	name := strings.ReplaceAll(strings.TrimSpace(clientName), " ", "_")
	if name == "" {
		name = "client"
	}
	return fmt.Sprintf("laenuleping_%s_%s.pdf", name, time.Now().Format("20060102"))
}

// Render produces the contract PDF.
func Render(d Data) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	width := 170.0

	title := func(text string) {
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(width, 10, tr(text), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}
	heading := func(text string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(width, 6, tr(text), "", "L", false)
		pdf.Ln(1)
	}
	para := func(text string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(width, 5, tr(text), "", "L", false)
	}
	bold := func(text string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(width, 5, tr(text), "", "L", false)
	}
	bullet := func(text string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetX(28)
		pdf.MultiCell(width-8, 5, tr("• "+text), "", "L", false)
	}

	title("LAENULEPING")

	today := time.Now().Format("02.01.2006")
	para(fmt.Sprintf("Käesoleva laenulepingu (edaspidi: Leping) on sõlminud %s", today))
	para("Tallinn, Eesti")
	pdf.Ln(5)

	bold(d.LenderName)
	para(fmt.Sprintf("elukoht: %s", d.LenderAddress))
	para("(edaspidi: Laenuandja)")
	pdf.Ln(3)
	para("ja")
	pdf.Ln(3)
	bold(d.ClientName)
	para(fmt.Sprintf("elukoht: %s", d.ClientAddress))
	para(fmt.Sprintf("isikukoodiga: %s", d.BirthNumber))
	para("(edaspidi: Laenusaaja)")
	pdf.Ln(3)
	para(", edaspidi viidatud ka kui Pool või ühiselt kui Pooled, alljärgnevas:")

	heading("1. Laen ja selle üleandmine")
	para(fmt.Sprintf("1.1. Laenuandja annab Laenusaajale laenu %.2f eurot (edaspidi Laen).", d.LoanAmount))
	para("1.2. Laenuandja kohustub Laenusaajale Laenu üle andma hiljemalt 1 tööpäeva jooksul.")
	para("1.3. Laenu üleandmine toimub Laenu kandmisega Laenusaaja poolt antud arvelduskontole.")

	heading("2. Intress ja laenu tagastamine")
	para("2.1. Laen on antud tähtajaliselt.")
	para(fmt.Sprintf("2.2. Laenusaaja kohustub Laenu tagasi maksma alljärgnevalt: %.2f eurot maksetähtpäevaks %s.", d.LoanAmount, d.DueDate))
	para("2.3. Laenusaaja tagastab Laenuandjale Laenu Laenuandja arvelduskontole.")
	para("2.4. Kui Laenusaaja teeb Laenuandjale makse, millest ei piisa kõigi Lepingu alusel võlgnetavate summade tasumiseks, arvestatakse makse:")
	bullet("esimeses järjekorras võlgnetava intressi katteks;")
	bullet("teises järjekorras võlgnetava viivise katteks;")
	bullet("kolmandas järjekorras võlgnetava põhisumma katteks;")
	bullet("neljandas järjekorras muude Lepingust tulenevate kohustuste katteks.")
	para("2.5. Laenusaajal on õigus tagastada kogu Laen enne Lepingu punktis 2.2 nimetatud maksetähtpäeva, teavitades sellest Laenuandjat kirjalikult.")

	heading("3. Viivis")
	para("3.1. Laenu tagastamisega viivitamisel on Laenuandjal õigus nõuda Laenusaajalt viivise tasumist 2% päevas sissenõutavaks muutunud summalt iga tasumisega viivitatud päeva eest.")
	para("3.2. Tasumata intressilt või viiviselt viivist ei arvestata.")

	heading("4. Laenuandja õigus leping üles öelda")
	para("4.1. Laenuandjal on õigus Leping üles öelda ja nõuda Laenu kohest tagastamist, kui:")
	bullet("Lepingust tulenevaid Laenusaaja kohustusi tagava vara väärtus väheneb oluliselt ning Laenusaaja ja Laenuandja ei jõua kokkuleppele Laenu täiendava tagamise osas;")
	bullet("Laenusaaja ei täida kohaselt Lepingust tulenevaid kohustusi või mõnda neist ning jätkab kohustuse mittetäitmist ka pärast 14 päeva möödumist Laenuandjalt vastavasisulise kirjaliku teatise saamisest.")

	heading("5. Tagatised")
	para("5.1. Laenusaaja vastutab Lepingust tulenevate kohustuste täitmise eest kogu oma varaga.")

	heading("6. Vaidluste lahendamise kord")
	para("6.1. Lepingust tulenevad ja sellega seotud vaidlused püüavad Pooled lahendada läbirääkimiste teel.")
	para("6.2. Kui vaidlust ei õnnestu lahendada Poolte läbirääkimiste teel, on Pooltel õigus pöörduda vaidluse lahendamiseks maakohtusse vastavalt Eesti Vabariigis kehtivatele õigusaktidele.")

	heading("7. Lepingu jõustumine")
	para("7.1. Leping jõustub alates Lepingu allkirjastamise hetkest.")

	heading("8. Lõppsätted")
	para("8.1. Leping on koostatud ja alla kirjutatud eesti keeles kahes (2) võrdset juriidilist jõudu omavas identses eksemplaris, millest üks jääb Laenuandjale ja teine Laenusaajale.")

	// Signature block.
	pdf.Ln(15)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(85, 6, tr("Laenuandja:"), "", 0, "L", false, 0, "")
	pdf.CellFormat(85, 6, tr("Laenusaaja:"), "", 1, "L", false, 0, "")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(85, 6, tr(d.LenderName), "", 0, "L", false, 0, "")
	pdf.CellFormat(85, 6, tr(d.ClientName), "", 1, "L", false, 0, "")
	line := strings.Repeat("_", 30)
	pdf.CellFormat(85, 6, line, "", 0, "L", false, 0, "")
	pdf.CellFormat(85, 6, line, "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render contract pdf: %w", err)
	}
	return buf.Bytes(), nil
}
