package export

import (
	"context"
	"testing"
)

func TestNewSheetsClient_RequiresSpreadsheetID(t *testing.T) {
	if _, err := NewSheetsClient(context.Background(), "", "Statements"); err == nil {
		t.Fatal("NewSheetsClient without a spreadsheet id should fail")
	}
	if _, err := NewSheetsClient(context.Background(), "   ", "Statements"); err == nil {
		t.Fatal("NewSheetsClient with a blank spreadsheet id should fail")
	}
}
