package util

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
)

//*******************************************
// binary buffers
//*******************************************

func NewBufferReader(data []byte) BufferReader {
	reader := bytes.NewReader(data)
	return BufferReader{
		reader: reader,
	}
}

type BufferReader struct {
	reader *bytes.Reader
}

func Read[T any](reader BufferReader) T {
	var value T
	binary.Read(reader.reader, binary.LittleEndian, &value)
	return value
}

func ReadArray[T any](reader BufferReader) Array[T] {
	var size int32
	binary.Read(reader.reader, binary.LittleEndian, &size)
	value := NewArray[T](int(size))
	binary.Read(reader.reader, binary.LittleEndian, &value)
	return value
}

func NewBufferWriter() BufferWriter {
	buffer := bytes.Buffer{}
	return BufferWriter{
		buffer: &buffer,
	}
}

type BufferWriter struct {
	buffer *bytes.Buffer
}

func (self *BufferWriter) Bytes() []byte {
	return self.buffer.Bytes()
}

func Write[T any](writer BufferWriter, value T) {
	binary.Write(writer.buffer, binary.LittleEndian, value)
}

func WriteArray[T any](writer BufferWriter, value Array[T]) {
	binary.Write(writer.buffer, binary.LittleEndian, int32(value.Length()))
	binary.Write(writer.buffer, binary.LittleEndian, value)
}

//*******************************************
// file io
//*******************************************

func WriteToFile[T any](value T, file string) {
	writer := NewBufferWriter()

	Write[T](writer, value)

	f, err := os.Create(file)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	f.Write(writer.Bytes())
}

func WriteArrayToFile[T any](value Array[T], file string) {
	writer := NewBufferWriter()

	WriteArray[T](writer, value)

	f, err := os.Create(file)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	f.Write(writer.Bytes())
}

func WriteJSONToFile[T any](value T, file string) {
	data, _ := json.Marshal(value)

	f, err := os.Create(file)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	f.Write(data)
}

func ReadFromFile[T any](file string) T {
	_, err := os.Stat(file)
	if errors.Is(err, os.ErrNotExist) {
		panic("file not found: " + file)
	}

	data, _ := os.ReadFile(file)
	reader := NewBufferReader(data)

	value := Read[T](reader)
	return value
}

func ReadArrayFromFile[T any](file string) Array[T] {
	_, err := os.Stat(file)
	if errors.Is(err, os.ErrNotExist) {
		panic("file not found: " + file)
	}

	data, _ := os.ReadFile(file)
	reader := NewBufferReader(data)

	value := ReadArray[T](reader)
	return value
}

func ReadJSONFromFile[T any](file string) T {
	_, err := os.Stat(file)
	if errors.Is(err, os.ErrNotExist) {
		panic("file not found: " + file)
	}

	data, _ := os.ReadFile(file)

	var value T
	json.Unmarshal(data, &value)

	return value
}

//*******************************************
// csv io
//*******************************************

// Iterates rows of a csv file with a header line.
// Every row is yielded as a mapping from column name to raw value.
func ReadCSVFromFile(filename string, delimiter rune) func(yield func(Dict[string, string]) bool) {
	return func(yield func(Dict[string, string]) bool) {
		file, err := os.Open(filename)
		if err != nil {
			panic(err)
		}
		defer file.Close()

		reader := csv.NewReader(file)
		reader.Comma = delimiter
		header, err := reader.Read()
		if err != nil {
			panic(err)
		}

		for {
			record, err := reader.Read()
			if err == io.EOF {
				break
			} else if err != nil {
				continue
			}
			row := NewDict[string, string](len(header))
			for i, name := range header {
				if i >= len(record) {
					continue
				}
				row[name] = record[i]
			}
			if !yield(row) {
				break
			}
		}
	}
}
