package extraction

import (
	"context"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"
)

const xlsxMime = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// xlsxBackend decodes Excel workbooks. Every sheet becomes one heading
// block (the sheet name) followed by one table block, so spreadsheet
// structure survives into chunking.
type xlsxBackend struct{}

func (b *xlsxBackend) Name() string { return "xlsx" }

func (b *xlsxBackend) Matches(mtype *mimetype.MIME, ext string) bool {
	return mtype.Is(xlsxMime) || ext == ".xlsx"
}

func (b *xlsxBackend) Extract(ctx context.Context, path string) (*StructuredDocument, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ExtractionError{Op: "open xlsx", Err: err}
	}
	defer f.Close()

	out := &StructuredDocument{}

	for _, sheetName := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, &ExtractionError{Op: "read xlsx sheet", Err: err}
		}

		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, &ExtractionError{Op: "read xlsx sheet " + sheetName, Err: err}
		}
		if len(rows) == 0 {
			continue
		}

		out.Blocks = append(out.Blocks,
			Block{Kind: BlockHeading, Text: sheetName, Level: 1},
			Block{Kind: BlockTable, Table: rows},
		)

		cells, err := f.GetPictureCells(sheetName)
		if err != nil {
			continue
		}
		for _, cell := range cells {
			pictures, err := f.GetPictures(sheetName, cell)
			if err != nil {
				continue
			}
			for _, pic := range pictures {
				out.Blocks = append(out.Blocks, Block{Kind: BlockImage, Image: pic.File})
			}
		}
	}

	return out, nil
}
