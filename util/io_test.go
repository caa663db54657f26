package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArrayFileRoundtrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "values.bin")

	values := Array[int32]{3, -1, 7, 2000000000}
	WriteArrayToFile(values, file)

	read := ReadArrayFromFile[int32](file)
	if read.Length() != values.Length() {
		t.Fatalf("read.Length() = %v; want %v", read.Length(), values.Length())
	}
	for i := 0; i < values.Length(); i++ {
		if read[i] != values[i] {
			t.Errorf("read[%v] = %v; want %v", i, read[i], values[i])
		}
	}
}

func TestCSVRows(t *testing.T) {
	file := filepath.Join(t.TempDir(), "demands.csv")
	content := "stop;demand\n0;4\n1;2\n2;0\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	stops := NewList[string](3)
	demands := NewList[string](3)
	for row := range ReadCSVFromFile(file, ';') {
		stops.Add(row.Get("stop"))
		demands.Add(row.Get("demand"))
	}
	if stops.Length() != 3 {
		t.Fatalf("stops.Length() = %v; want 3", stops.Length())
	}
	if stops.Get(1) != "1" || demands.Get(1) != "2" {
		t.Errorf("row 1 = (%v, %v); want (1, 2)", stops.Get(1), demands.Get(1))
	}
}
