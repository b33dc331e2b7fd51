// Package scanner provides document discovery and analysis for markdown
// documentation trees.
//
// The scanner traverses file systems to find markdown pages, splits and
// decodes their front-matter, and extracts outbound links and headings from
// the body. It integrates with the document registry to broadcast change
// events and supports recursive directory scanning with exclude patterns.
// The scanner maintains file hashes for change detection and provides both
// single-file and batch scanning capabilities.
package scanner

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/docsentry/docsentry/internal/errors"
	"github.com/docsentry/docsentry/internal/frontmatter"
	"github.com/docsentry/docsentry/internal/registry"
	"github.com/docsentry/docsentry/internal/types"
)

// markdownExtensions are the file suffixes treated as documentation pages.
var markdownExtensions = []string{".md", ".markdown"}

// ScanJob represents a scanning job for the worker pool containing the file
// path to scan and a result channel for asynchronous communication.
type ScanJob struct {
	// filePath is the absolute path to the markdown file to be scanned
	filePath string
	// result channel receives the scan result or error asynchronously
	result chan<- ScanResult
}

// ScanResult represents the result of a scanning operation, containing either
// success status or error information for a specific file.
type ScanResult struct {
	// filePath is the path that was scanned
	filePath string
	// err contains any error that occurred during scanning, nil on success
	err error
}

// BufferPool manages reusable byte buffers for file reading optimization
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool creates a new buffer pool with initial buffer size
func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				// Pre-allocate 64KB buffers for typical documentation pages
				return make([]byte, 0, 64*1024)
			},
		},
	}
}

// Get retrieves a buffer from the pool
func (bp *BufferPool) Get() []byte {
	return bp.pool.Get().([]byte)[:0]
}

// Put returns a buffer to the pool
func (bp *BufferPool) Put(buf []byte) {
	// Only pool reasonably-sized buffers to avoid memory leaks
	if cap(buf) <= 1024*1024 {
		bp.pool.Put(buf)
	}
}

// WorkerPool manages persistent scanning workers, distributing scanning jobs
// across CPU cores.
type WorkerPool struct {
	// jobQueue buffers scanning jobs for worker distribution
	jobQueue chan ScanJob
	// workers holds references to all active worker goroutines
	workers []*scanWorker
	// workerCount defines the number of concurrent workers (typically NumCPU)
	workerCount int
	// stop signals all workers to terminate gracefully
	stop chan struct{}
	// stopped tracks pool shutdown state
	stopped bool
	// mu protects concurrent access to pool state
	mu sync.RWMutex
}

// scanWorker is a persistent worker goroutine that processes scanning jobs
// from the shared job queue.
type scanWorker struct {
	id       int
	jobQueue <-chan ScanJob
	scanner  *DocumentScanner
	stop     chan struct{}
}

// DocumentScanner discovers markdown documents and extracts their metadata.
//
// The scanner provides:
//   - Recursive directory traversal with exclude patterns
//   - Front-matter decoding and body link/heading extraction
//   - Concurrent processing via worker pool
//   - Integration with the document registry for event broadcasting
//   - File change detection using CRC32 hashing
//   - Path validation with cached working directory
type DocumentScanner struct {
	// registry receives discovered documents and broadcasts change events
	registry *registry.DocumentRegistry
	// root is the corpus root; registered paths are relative to it
	root string
	// excludePatterns are filepath.Match patterns applied to base names
	excludePatterns []string
	// workerPool manages concurrent scanning operations
	workerPool *WorkerPool
	// pathCache contains cached path validation data to avoid repeated syscalls
	pathCache *pathValidationCache
	// bufferPool provides reusable byte buffers for file reading
	bufferPool *BufferPool
}

// pathValidationCache caches the working directory lookup used by path
// traversal checks.
type pathValidationCache struct {
	mu                sync.RWMutex
	currentWorkingDir string
	initialized       bool
}

// Option configures a DocumentScanner.
type Option func(*DocumentScanner)

// WithExcludePatterns sets base-name patterns to skip during traversal.
func WithExcludePatterns(patterns []string) Option {
	return func(s *DocumentScanner) {
		s.excludePatterns = patterns
	}
}

// WithRoot sets the corpus root used to derive registry-relative paths.
// Defaults to the scanned directory.
func WithRoot(root string) Option {
	return func(s *DocumentScanner) {
		s.root = root
	}
}

// NewDocumentScanner creates a new document scanner backed by a worker pool.
func NewDocumentScanner(reg *registry.DocumentRegistry, opts ...Option) *DocumentScanner {
	scanner := &DocumentScanner{
		registry:   reg,
		pathCache:  &pathValidationCache{},
		bufferPool: NewBufferPool(),
	}

	for _, opt := range opts {
		opt(scanner)
	}

	workerCount := runtime.NumCPU()
	if workerCount > 8 {
		workerCount = 8 // diminishing returns past this
	}
	scanner.workerPool = newWorkerPool(workerCount, scanner)

	return scanner
}

func newWorkerPool(workerCount int, scanner *DocumentScanner) *WorkerPool {
	pool := &WorkerPool{
		jobQueue:    make(chan ScanJob, workerCount*2),
		workerCount: workerCount,
		stop:        make(chan struct{}),
	}

	pool.workers = make([]*scanWorker, workerCount)
	for i := 0; i < workerCount; i++ {
		worker := &scanWorker{
			id:       i,
			jobQueue: pool.jobQueue,
			scanner:  scanner,
			stop:     make(chan struct{}),
		}
		pool.workers[i] = worker
		go worker.start()
	}

	return pool
}

func (w *scanWorker) start() {
	for {
		select {
		case job := <-w.jobQueue:
			err := w.scanner.scanFileInternal(job.filePath)
			job.result <- ScanResult{filePath: job.filePath, err: err}
		case <-w.stop:
			return
		}
	}
}

// Stop gracefully shuts down the worker pool
func (p *WorkerPool) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	p.stopped = true
	close(p.stop)

	for _, worker := range p.workers {
		close(worker.stop)
	}

	close(p.jobQueue)
}

// GetRegistry returns the document registry
func (s *DocumentScanner) GetRegistry() *registry.DocumentRegistry {
	return s.registry
}

// Close gracefully shuts down the scanner and its worker pool
func (s *DocumentScanner) Close() error {
	if s.workerPool != nil {
		s.workerPool.Stop()
	}
	return nil
}

// ScanDirectory scans a directory tree for markdown documents.
func (s *DocumentScanner) ScanDirectory(dir string) error {
	cleanDir, err := s.validatePath(dir)
	if err != nil {
		return fmt.Errorf("invalid directory path: %w", err)
	}

	if s.root == "" {
		s.root = cleanDir
	}

	var files []string
	err = filepath.WalkDir(cleanDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		base := filepath.Base(path)
		if d.IsDir() {
			if base != "." && (strings.HasPrefix(base, ".") || base == "node_modules" || base == "vendor") {
				return filepath.SkipDir
			}
			return nil
		}

		if !isMarkdown(path) || s.excluded(base) {
			return nil
		}

		// Skip paths that fail validation rather than aborting the walk.
		if _, err := s.validatePath(path); err != nil {
			return nil
		}

		files = append(files, path)
		return nil
	})

	if err != nil {
		return err
	}

	return s.processBatchWithWorkerPool(files)
}

func isMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, md := range markdownExtensions {
		if ext == md {
			return true
		}
	}
	return false
}

func (s *DocumentScanner) excluded(base string) bool {
	for _, pattern := range s.excludePatterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// processBatchWithWorkerPool processes files using the persistent worker pool.
func (s *DocumentScanner) processBatchWithWorkerPool(files []string) error {
	if len(files) == 0 {
		return nil
	}

	// For very small batches, process synchronously to avoid overhead
	if len(files) <= 5 {
		return s.processBatchSynchronous(files)
	}

	resultChan := make(chan ScanResult, len(files))

	for _, file := range files {
		job := ScanJob{filePath: file, result: resultChan}

		select {
		case s.workerPool.jobQueue <- job:
		default:
			// Worker pool is full, process synchronously as fallback
			err := s.scanFileInternal(file)
			resultChan <- ScanResult{filePath: file, err: err}
		}
	}

	collector := errors.NewErrorCollector()
	for i := 0; i < len(files); i++ {
		result := <-resultChan
		if result.err != nil {
			collector.AddError(fmt.Errorf("scanning %s: %w", result.filePath, result.err))
		}
	}

	close(resultChan)

	if collector.HasErrors() {
		collected := collector.Errors()
		return fmt.Errorf("scan completed with %d errors: %v", collector.Count(), &collected[0].DocError)
	}

	return nil
}

func (s *DocumentScanner) processBatchSynchronous(files []string) error {
	collector := errors.NewErrorCollector()

	for _, file := range files {
		if err := s.scanFileInternal(file); err != nil {
			collector.AddError(fmt.Errorf("scanning %s: %w", file, err))
		}
	}

	if collector.HasErrors() {
		collected := collector.Errors()
		return fmt.Errorf("scan completed with %d errors: %v", collector.Count(), &collected[0].DocError)
	}

	return nil
}

// ScanFile scans a single markdown file.
func (s *DocumentScanner) ScanFile(path string) error {
	return s.scanFileInternal(path)
}

// RelPath returns the registry key for an absolute document path.
func (s *DocumentScanner) RelPath(path string) string {
	return s.relPath(path)
}

func (s *DocumentScanner) relPath(path string) string {
	root := s.root
	if root == "" {
		return filepath.ToSlash(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(absRoot, abs)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// scanFileInternal reads, hashes, and parses one document, then registers it.
func (s *DocumentScanner) scanFileInternal(path string) error {
	cleanPath, err := s.validatePath(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return errors.NewIOError(fmt.Sprintf("opening file %s", cleanPath), err).WithLocation(s.relPath(cleanPath), 0, 0)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return errors.NewIOError(fmt.Sprintf("getting file info for %s", cleanPath), err).WithLocation(s.relPath(cleanPath), 0, 0)
	}

	buffer := s.bufferPool.Get()
	defer s.bufferPool.Put(buffer)

	content, err := readAll(file, info.Size(), buffer)
	if err != nil {
		return errors.NewIOError(fmt.Sprintf("reading file %s", cleanPath), err).WithLocation(s.relPath(cleanPath), 0, 0)
	}

	hash := fmt.Sprintf("%x", crc32.ChecksumIEEE(content))

	doc := s.parseDocument(cleanPath, content, hash, info.ModTime())
	s.registry.Register(doc)

	return nil
}

// readAll reads the file using the pooled buffer where it fits, falling back
// to chunked reads for large files.
func readAll(file *os.File, size int64, pooledBuffer []byte) ([]byte, error) {
	if size <= int64(cap(pooledBuffer)) {
		buf := pooledBuffer[:size]
		if _, err := io.ReadFull(file, buf); err != nil {
			return nil, err
		}
		content := make([]byte, size)
		copy(content, buf)
		return content, nil
	}

	const chunkSize = 32 * 1024
	var chunk []byte
	if cap(pooledBuffer) >= chunkSize {
		chunk = pooledBuffer[:chunkSize]
	} else {
		chunk = make([]byte, chunkSize)
	}

	content := make([]byte, 0, size)
	for {
		n, err := file.Read(chunk)
		if n > 0 {
			content = append(content, chunk[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
	}
	return content, nil
}

// parseDocument builds a DocumentInfo from raw page content. Front-matter
// decode failures do not abort the scan; the document is registered with the
// failure recorded so reports can surface it.
func (s *DocumentScanner) parseDocument(path string, content []byte, hash string, modTime time.Time) *types.DocumentInfo {
	doc := &types.DocumentInfo{
		Path:    s.relPath(path),
		AbsPath: path,
		Aside:   true,
		LastMod: modTime,
		Hash:    hash,
	}

	meta, body, err := frontmatter.Parse(content)
	switch {
	case err != nil:
		doc.HasFrontmatter = true
		doc.FrontmatterErr = err.Error()
		// Recover the body past the block so link checks still run.
		if _, rest, found, splitErr := frontmatter.Split(content); splitErr == nil && found {
			body = rest
		} else {
			body = string(content)
		}
	case meta != nil:
		doc.HasFrontmatter = true
		doc.Title = meta.Title
		doc.Description = meta.Description
		doc.Aside = meta.Aside
		doc.Keywords = meta.Keywords
		doc.Extra = meta.Extra
	}

	normalized := strings.ReplaceAll(string(content), "\r\n", "\n")
	bodyOffset := lineOffset(normalized, body)
	doc.Links = ExtractLinks(body, bodyOffset)
	doc.Headings = ExtractHeadings(body, bodyOffset)
	doc.WordCount = len(strings.Fields(body))

	return doc
}

// lineOffset returns how many lines precede the body within the full content,
// so extracted line numbers refer to the file rather than the body slice.
func lineOffset(content, body string) int {
	if body == "" {
		return strings.Count(content, "\n")
	}
	idx := strings.Index(content, body)
	if idx <= 0 {
		return 0
	}
	return strings.Count(content[:idx], "\n")
}

// validatePath validates and cleans a file path to prevent directory
// traversal, caching the working directory to avoid repeated syscalls.
func (s *DocumentScanner) validatePath(path string) (string, error) {
	cleanPath := filepath.Clean(path)

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}

	cwd, err := s.getCachedWorkingDir()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}

	if !strings.HasPrefix(absPath, cwd) {
		return "", errors.NewSecurityError(fmt.Sprintf("path %s is outside current working directory", path))
	}

	if strings.Contains(cleanPath, "..") {
		return "", errors.NewSecurityError(fmt.Sprintf("path contains directory traversal: %s", path))
	}

	return cleanPath, nil
}

func (s *DocumentScanner) getCachedWorkingDir() (string, error) {
	s.pathCache.mu.RLock()
	if s.pathCache.initialized {
		cwd := s.pathCache.currentWorkingDir
		s.pathCache.mu.RUnlock()
		return cwd, nil
	}
	s.pathCache.mu.RUnlock()

	s.pathCache.mu.Lock()
	defer s.pathCache.mu.Unlock()

	if s.pathCache.initialized {
		return s.pathCache.currentWorkingDir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	absCwd, err := filepath.Abs(cwd)
	if err != nil {
		return "", fmt.Errorf("getting absolute working directory: %w", err)
	}

	s.pathCache.currentWorkingDir = absCwd
	s.pathCache.initialized = true

	return absCwd, nil
}

// InvalidatePathCache clears the cached working directory. Call it if the
// working directory changes during execution.
func (s *DocumentScanner) InvalidatePathCache() {
	s.pathCache.mu.Lock()
	defer s.pathCache.mu.Unlock()
	s.pathCache.initialized = false
	s.pathCache.currentWorkingDir = ""
}
