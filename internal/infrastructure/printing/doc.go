// Package printing renders quotations to PDF.
//
// A TemplateEngine turns a quotation into an HTML document using the embedded
// templates, and a PDFRenderer converts that HTML to PDF. ChromedpRenderer drives
// a local or remote headless Chrome through the DevTools protocol.
//
//	renderer, err := NewChromedpRenderer(config.PDFConfig{RemoteURL: "ws://chrome:9222"}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	printer := NewQuotationPrinter(NewTemplateEngine(), renderer, logger)
//	doc, err := printer.Print(ctx, q)
package printing
