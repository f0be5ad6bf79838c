package stats

import (
	"bytes"
	"testing"

	"pennywise/internal/core"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestRenderCategoryPie(t *testing.T) {
	totals := []core.CategoryTotal{
		{Category: core.CategoryFood, Total: 120.50},
		{Category: core.CategoryTravel, Total: 80},
		{Category: core.CategoryOther, Total: 12.25},
	}

	png, err := RenderCategoryPie(totals)
	if err != nil {
		t.Fatalf("RenderCategoryPie() error = %v", err)
	}
	if len(png) == 0 {
		t.Fatal("RenderCategoryPie() returned no bytes")
	}
	if !bytes.HasPrefix(png, pngHeader) {
		t.Error("output is not a PNG")
	}
}

func TestRenderCategoryPieEmpty(t *testing.T) {
	if _, err := RenderCategoryPie(nil); err == nil {
		t.Error("RenderCategoryPie() should fail with no totals")
	}
}

func TestRenderCategoryPieSkipsZeroSlices(t *testing.T) {
	totals := []core.CategoryTotal{
		{Category: core.CategoryFood, Total: 0},
	}
	if _, err := RenderCategoryPie(totals); err == nil {
		t.Error("RenderCategoryPie() should fail when every slice is zero")
	}
}
