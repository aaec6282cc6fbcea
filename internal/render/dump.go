package render

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/annel0/voxel-engine/internal/mesh"
	"github.com/klauspost/compress/zstd"
)

// DumpMagic - сигнатура файла дампа меша
const DumpMagic = "VXM1"

// Ограничение на число элементов в заголовке, чтобы битый файл не съел память
const maxDumpElements = 1 << 24

var (
	// ErrBadDump - файл не является дампом меша или поврежден
	ErrBadDump = errors.New("bad mesh dump")
	// ErrDumpTooLarge - меш не помещается в дамп, который ReadDump сможет прочитать
	ErrDumpTooLarge = fmt.Errorf("%w: too many elements", ErrBadDump)
	// ErrNoVertices - индексы пришли раньше вершин
	ErrNoVertices = errors.New("vertices must be uploaded before indices")
)

// WriteDump пишет меш в w: zstd( "VXM1" | u32 vertices | u32 indices | вершины | индексы ).
// Больше maxDumpElements вершин или индексов - ErrDumpTooLarge, в w ничего не пишется.
func WriteDump(w io.Writer, vertices []mesh.Vertex, indices []uint32) error {
	if err := CheckDumpSize(len(vertices), len(indices)); err != nil {
		return err
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)

	var header [len(DumpMagic) + 8]byte
	copy(header[:], DumpMagic)
	binary.LittleEndian.PutUint32(header[4:], uint32(len(vertices)))
	binary.LittleEndian.PutUint32(header[8:], uint32(len(indices)))

	if _, err := bw.Write(header[:]); err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(mesh.EncodeVertices(vertices)); err != nil {
		enc.Close()
		return err
	}
	if _, err := bw.Write(mesh.EncodeIndices(indices)); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// CheckDumpSize проверяет, что меш таких размеров читается обратно ReadDump
func CheckDumpSize(vertices, indices int) error {
	if vertices > maxDumpElements || indices > maxDumpElements {
		return fmt.Errorf("%w: counts %d/%d (max %d)", ErrDumpTooLarge, vertices, indices, maxDumpElements)
	}
	return nil
}

// ReadDump читает меш, записанный WriteDump
func ReadDump(r io.Reader) (*mesh.Mesh, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	var header [len(DumpMagic) + 8]byte
	if _, err := io.ReadFull(br, header[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadDump, err)
	}
	if !bytes.Equal(header[:4], []byte(DumpMagic)) {
		return nil, fmt.Errorf("%w: magic %q", ErrBadDump, header[:4])
	}
	vertexCount := binary.LittleEndian.Uint32(header[4:])
	indexCount := binary.LittleEndian.Uint32(header[8:])
	if vertexCount > maxDumpElements || indexCount > maxDumpElements {
		return nil, fmt.Errorf("%w: counts %d/%d", ErrBadDump, vertexCount, indexCount)
	}

	vertexBytes := make([]byte, int(vertexCount)*mesh.VertexStride)
	if _, err := io.ReadFull(br, vertexBytes); err != nil {
		return nil, fmt.Errorf("%w: vertices: %v", ErrBadDump, err)
	}
	indexBytes := make([]byte, int(indexCount)*mesh.IndexStride)
	if _, err := io.ReadFull(br, indexBytes); err != nil {
		return nil, fmt.Errorf("%w: indices: %v", ErrBadDump, err)
	}

	vertices, err := mesh.DecodeVertices(vertexBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDump, err)
	}
	indices, err := mesh.DecodeIndices(indexBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDump, err)
	}
	return &mesh.Mesh{Vertices: vertices, Indices: indices}, nil
}

// ReadDumpFile читает дамп меша из файла
func ReadDumpFile(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDump(f)
}

// FileSink пишет меш в файл дампа. Файл создается при загрузке индексов.
type FileSink struct {
	path     string
	vertices []mesh.Vertex
	ready    bool
}

// NewFileSink создает приемник, пишущий в path
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Path возвращает путь к файлу дампа
func (s *FileSink) Path() string { return s.path }

// UploadVertices запоминает вершины до загрузки индексов
func (s *FileSink) UploadVertices(vertices []mesh.Vertex) error {
	s.vertices = append([]mesh.Vertex(nil), vertices...)
	s.ready = true
	return nil
}

// UploadIndices записывает дамп через временный файл и rename
func (s *FileSink) UploadIndices(indices []uint32) error {
	if !s.ready {
		return ErrNoVertices
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("создание директории %s: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("создание файла %s: %w", tmp, err)
	}
	if err := WriteDump(f, s.vertices, indices); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("запись дампа: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("переименование %s: %w", tmp, err)
	}

	s.vertices = nil
	s.ready = false
	return nil
}
