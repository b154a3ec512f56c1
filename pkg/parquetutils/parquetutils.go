package parquetutils

import (
	"github.com/cockroachdb/errors"
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"
)

// ReaderConcurrency parallel number of file readers.
var ReaderConcurrency int64 = 8

// WriterConcurrency parallel number of row group marshalers.
var WriterConcurrency int64 = 4

// ReadAll reads all records from the parquet file.
func ReadAll[T any](sourceFile source.ParquetFile) ([]T, error) {
	r, err := reader.NewParquetReader(sourceFile, new(T), ReaderConcurrency)
	if err != nil {
		return nil, errors.Wrap(err, "can't create parquet reader")
	}
	defer r.ReadStop()

	data := make([]T, r.GetNumRows())
	if err = r.Read(&data); err != nil {
		return nil, errors.Wrap(err, "failed to read parquet data")
	}

	return data, nil
}

// WriteAll encodes the records into an in-memory parquet file.
func WriteAll[T any](records []T) ([]byte, error) {
	bf := &BufferFile{underlying: parquetbuffer.NewBufferFile()}
	w, err := writer.NewParquetWriter(bf, new(T), WriterConcurrency)
	if err != nil {
		return nil, errors.Wrap(err, "can't create parquet writer")
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return nil, errors.Wrap(err, "failed to write parquet record")
		}
	}
	if err := w.WriteStop(); err != nil {
		return nil, errors.Wrap(err, "failed to flush parquet writer")
	}
	return bf.Bytes(), nil
}
