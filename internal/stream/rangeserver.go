package stream

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// copyChunkSize is the buffer size for streaming file bytes. Large enough
// to keep syscall overhead down, small enough that an aborted request does
// not leave much in flight.
const copyChunkSize = 2 * 1024 * 1024

// ServeFileRange serves a local file honoring single-range HTTP semantics:
// full body for no Range header, 206 with a Content-Range for a valid
// range, 416 when the range cannot be satisfied. Multi-range requests are
// answered with the first range only.
func ServeFileRange(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.Error(w, "file not found", http.StatusNotFound)
		return
	}
	size := info.Size()

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentTypeFor(path))

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			copyChunks(w, f, size)
		}
		return
	}

	start, end, err := parseRange(rangeHeader, size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	length := end - start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodHead {
		return
	}

	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return
	}
	copyChunks(w, f, length)
}

// parseRange parses a single byte range ("bytes=start-end", "bytes=start-",
// or the suffix form "bytes=-n") against the file size.
func parseRange(header string, size int64) (start, end int64, err error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("unsupported range unit")
	}
	// Multi-range: take the first.
	if idx := strings.Index(spec, ","); idx >= 0 {
		spec = spec[:idx]
	}
	spec = strings.TrimSpace(spec)

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed range %q", spec)
	}

	if startStr == "" {
		// Suffix form: last n bytes.
		n, perr := strconv.ParseInt(endStr, 10, 64)
		if perr != nil || n <= 0 {
			return 0, 0, fmt.Errorf("malformed suffix range %q", spec)
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, nil
	}

	start, err = strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, fmt.Errorf("malformed range start %q", spec)
	}

	if endStr == "" {
		end = size - 1
	} else {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("malformed range end %q", spec)
		}
		if end >= size {
			end = size - 1
		}
	}

	if start >= size || start > end {
		return 0, 0, fmt.Errorf("unsatisfiable range %q", spec)
	}
	return start, end, nil
}

// copyChunks streams n bytes from src in fixed-size chunks. Write errors
// (client disconnects) are ignored; there is nobody left to tell.
func copyChunks(w io.Writer, src io.Reader, n int64) {
	buf := make([]byte, copyChunkSize)
	io.CopyBuffer(w, io.LimitReader(src, n), buf)
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); ct != "" {
		return ct
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mkv":
		return "video/x-matroska"
	case ".ts":
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}
