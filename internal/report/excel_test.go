package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestFilename(t *testing.T) {
	now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	if got := Filename(now); got != "찬양팀_예산리포트_20260825.xlsx" {
		t.Errorf("Filename() = %q", got)
	}
}

func TestRenderWorkbookLayout(t *testing.T) {
	data, err := Render(Build(fixtureTransactions(), fixtureBudgets(), reportNow))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	wantSheets := []string{
		"지출내역", "예산설정", "카테고리별요약", "예산대비실적",
		"월별추이", "결제수단별", "리포트요약",
	}
	got := f.GetSheetList()
	if len(got) != len(wantSheets) {
		t.Fatalf("sheet list = %v, want %v", got, wantSheets)
	}
	for i, name := range wantSheets {
		if got[i] != name {
			t.Errorf("sheet[%d] = %q, want %q", i, got[i], name)
		}
	}
}

func TestRenderCellContents(t *testing.T) {
	data, err := Render(Build(fixtureTransactions(), fixtureBudgets(), reportNow))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	checks := []struct {
		sheet string
		cell  string
		want  string
	}{
		{"지출내역", "A1", "날짜"},
		{"지출내역", "A2", "2026-02-10"},
		{"지출내역", "D2", "27000"},
		{"지출내역", "E2", "카드"},
		{"예산설정", "D6", "미지정"},
		{"카테고리별요약", "A2", "식비/간식"},
		{"카테고리별요약", "B2", "40000"},
		{"예산대비실적", "E2", "133.3"},
		{"예산대비실적", "F2", StatusOverBudget},
		{"월별추이", "A2", "2026-02"},
		{"결제수단별", "A2", "카드"},
		{"결제수단별", "D2", "67"},
		{"리포트요약", "B3", "3건"},
		{"리포트요약", "B4", "₩100,000"},
		{"리포트요약", "B7", "111.1%"},
	}
	for _, c := range checks {
		got, err := f.GetCellValue(c.sheet, c.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s!%s) error = %v", c.sheet, c.cell, err)
		}
		if got != c.want {
			t.Errorf("%s!%s = %q, want %q", c.sheet, c.cell, got, c.want)
		}
	}
}

func TestRenderReceiptHyperlink(t *testing.T) {
	data, err := Render(Build(fixtureTransactions(), fixtureBudgets(), reportNow))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	// tx-2 carries the receipt URL and lands on row 3.
	ok, link, err := f.GetCellHyperLink("지출내역", "F3")
	if err != nil {
		t.Fatalf("GetCellHyperLink() error = %v", err)
	}
	if !ok {
		t.Fatal("receipt URL cell should carry a hyperlink")
	}
	if link != "https://drive.google.com/file/d/abc/view" {
		t.Errorf("hyperlink = %q", link)
	}

	// tx-1 has no receipt; its cell must stay plain.
	ok, _, err = f.GetCellHyperLink("지출내역", "F2")
	if err != nil {
		t.Fatalf("GetCellHyperLink() error = %v", err)
	}
	if ok {
		t.Error("empty receipt cell should not carry a hyperlink")
	}
}

func TestRenderEmptyReport(t *testing.T) {
	data, err := Render(Build(nil, nil, reportNow))
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	got, err := f.GetCellValue("리포트요약", "B7")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if got != "N/A" {
		t.Errorf("집행률 without budget = %q, want N/A", got)
	}
}
