package extract

import (
	"errors"

	"github.com/xuri/excelize/v2"
)

var errNoSheets = errors.New("workbook has no worksheets")

func readExcel(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, readErr(path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, readErr(path, errNoSheets)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, readErr(path, err)
	}

	texts := make([]string, 0, len(rows))
	for _, cells := range rows {
		if text, ok := joinRow(cells); ok {
			texts = append(texts, text)
		}
	}
	return texts, nil
}
