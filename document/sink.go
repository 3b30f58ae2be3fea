package document

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ByLCY/papyrus-billing/invoice"
)

// Sink 为一张发票提供输出位置。
type Sink interface {
	// Open 返回可写入的目标与其位置描述（例如文件路径）。
	Open(inv invoice.Invoice) (io.WriteCloser, string, error)
}

// FileSink 把发票写到 Root/<日期>/<客户>/<编号>.pdf。
type FileSink struct {
	Root string
	Now  func() time.Time
}

func (s FileSink) Open(inv invoice.Invoice) (io.WriteCloser, string, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	path := invoice.OutputPath(s.Root, inv, now())
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, path, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, path, err
	}
	return f, path, nil
}

// MemorySink 把结果保存在内存中，用于直接返回给 HTTP 客户端。
type MemorySink struct {
	Name string
	buf  bytes.Buffer
}

func (s *MemorySink) Open(inv invoice.Invoice) (io.WriteCloser, string, error) {
	s.buf.Reset()
	name := s.Name
	if name == "" {
		name = invoice.SafeName(inv.Number, "invoice") + invoice.DocumentExt
	}
	return nopCloser{&s.buf}, name, nil
}

// Bytes 返回最近一次写入的内容。
func (s *MemorySink) Bytes() []byte { return s.buf.Bytes() }

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
