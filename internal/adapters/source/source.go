// Package source содержит источники сырых данных переписки: файл, память и поток.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"chat-wrapped/internal/ports"
)

var (
	// ErrEmptyPath возвращается, если путь к файлу не указан.
	ErrEmptyPath = errors.New("не указан путь к файлу")
	// ErrNoData возвращается, если источник в памяти не содержит данных.
	ErrNoData = errors.New("data not set")
	// ErrTooLarge возвращается, если данные превышают допустимый размер.
	ErrTooLarge = errors.New("input exceeds size limit")
)

// FileSource реализует интерфейс DataSource для чтения выгрузки с диска.
type FileSource struct {
	path     string
	maxBytes int64
}

// NewFileSource создает новый экземпляр FileSource.
// maxBytes <= 0 снимает ограничение на размер.
func NewFileSource(path string, maxBytes int64) ports.DataSource {
	return &FileSource{path: path, maxBytes: maxBytes}
}

// Fetch читает файл по указанному пути и возвращает его содержимое.
func (s *FileSource) Fetch() ([]byte, error) {
	if s.path == "" {
		return nil, ErrEmptyPath
	}

	if s.maxBytes > 0 {
		info, err := os.Stat(s.path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat file %s: %w", s.path, err)
		}
		if info.Size() > s.maxBytes {
			return nil, fmt.Errorf("file %s is %d bytes: %w", s.path, info.Size(), ErrTooLarge)
		}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.path, err)
	}
	return data, nil
}

// MemorySource реализует интерфейс DataSource для данных, уже находящихся в памяти,
// например текста, вставленного пользователем.
type MemorySource struct {
	data []byte
}

// NewMemorySource создает новый экземпляр MemorySource.
func NewMemorySource(data []byte) ports.DataSource {
	return &MemorySource{data: data}
}

// NewTextSource создает MemorySource из строки.
func NewTextSource(text string) ports.DataSource {
	return &MemorySource{data: []byte(text)}
}

// Fetch возвращает копию данных.
func (s *MemorySource) Fetch() ([]byte, error) {
	if s.data == nil {
		return nil, ErrNoData
	}

	dataCopy := make([]byte, len(s.data))
	copy(dataCopy, s.data)
	return dataCopy, nil
}

// ReaderSource реализует интерфейс DataSource поверх потока, например os.Stdin.
// Поток читается один раз.
type ReaderSource struct {
	r        io.Reader
	maxBytes int64
}

// NewReaderSource создает новый экземпляр ReaderSource.
// maxBytes <= 0 снимает ограничение на размер.
func NewReaderSource(r io.Reader, maxBytes int64) ports.DataSource {
	return &ReaderSource{r: r, maxBytes: maxBytes}
}

// Fetch вычитывает поток целиком.
func (s *ReaderSource) Fetch() ([]byte, error) {
	if s.r == nil {
		return nil, ErrNoData
	}

	r := s.r
	if s.maxBytes > 0 {
		r = io.LimitReader(s.r, s.maxBytes+1)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
