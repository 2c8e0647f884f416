package batch

import (
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/page-tools-mcp/internal/imaging"
	"github.com/ironsheep/page-tools-mcp/internal/normalizer"
)

// DefaultScratchDir is the store directory for scratch inputs and outputs.
const DefaultScratchDir = "normalized"

// defaultExt is used when an upload has no recognized image extension.
const defaultExt = "jpg"

var scratchExts = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
}

// ScratchPaths names the scratch files of a batch item.
type ScratchPaths struct {
	Dir string
}

// Input returns the key of the scratch copy of an upload.
func (p ScratchPaths) Input(id, ext string) string {
	return path.Join(p.Dir, "temp_"+id+"_input."+ext)
}

// Output returns the key of a finished page.
func (p ScratchPaths) Output(id string) string {
	return path.Join(p.Dir, "normalized_"+id+".jpg")
}

// ScratchExt returns the extension, without a dot, used for the scratch copy
// of an upload named name.
func ScratchExt(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if scratchExts[ext] {
		return ext
	}
	return defaultExt
}

// PageResult is the outcome for one upload. On success NormalizedURL, Width
// and Height are set and Error is nil; on failure only Error is set.
type PageResult struct {
	ID               string  `json:"id"`
	OriginalFilename string  `json:"original_filename"`
	NormalizedURL    *string `json:"normalized_url"`
	Width            *int    `json:"width"`
	Height           *int    `json:"height"`
	Error            *string `json:"error"`
}

// OK reports whether the page was normalized.
func (r PageResult) OK() bool { return r.Error == nil }

// Response is the JSON envelope returned to upload clients.
type Response struct {
	NormalizedImages []PageResult `json:"normalized_images"`
}

// Adapter runs the normalizer over batches of uploads.
type Adapter struct {
	store      Store
	normalizer *normalizer.Normalizer
	paths      ScratchPaths
	workers    int
	keepFailed bool
	newID      func() (string, error)
	log        logrus.FieldLogger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithScratchDir sets the store directory used for scratch files.
func WithScratchDir(dir string) Option {
	return func(a *Adapter) {
		if dir != "" {
			a.paths.Dir = dir
		}
	}
}

// WithWorkers sets how many uploads are normalized at once.
func WithWorkers(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithKeepFailedInputs leaves the scratch input of a failed item in place
// for inspection instead of deleting it.
func WithKeepFailedInputs(keep bool) Option {
	return func(a *Adapter) { a.keepFailed = keep }
}

// WithIDGenerator replaces the nanoid generator.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(a *Adapter) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// NewAdapter returns an Adapter writing through store. A nil normalizer
// gets the default one.
func NewAdapter(store Store, n *normalizer.Normalizer, opts ...Option) *Adapter {
	a := &Adapter{
		store:      store,
		normalizer: n,
		paths:      ScratchPaths{Dir: DefaultScratchDir},
		workers:    4,
		newID:      func() (string, error) { return gonanoid.New() },
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.normalizer == nil {
		a.normalizer = normalizer.New(normalizer.WithLogger(a.log))
	}
	a.log = a.log.WithField("component", "batch")
	return a
}

// NormalizeBatch normalizes every upload and returns one result per upload
// in the same order. Item failures are reported on their PageResult; the
// returned error is non-nil only when the scratch area cannot be prepared.
func (a *Adapter) NormalizeBatch(files []Upload) ([]PageResult, error) {
	if err := a.store.Prepare(a.paths.Dir); err != nil {
		return nil, fmt.Errorf("failed to prepare scratch area: %w", err)
	}

	results := make([]PageResult, len(files))
	if len(files) == 0 {
		return results, nil
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(a.workers, len(files)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = a.normalizeOne(files[i])
			}
		}()
	}
	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	a.log.WithFields(logrus.Fields{
		"files":  len(files),
		"failed": failed,
	}).Info("batch normalized")
	return results, nil
}

func (a *Adapter) normalizeOne(u Upload) PageResult {
	res := PageResult{OriginalFilename: u.Name()}

	id, err := a.newID()
	if err != nil {
		msg := fmt.Sprintf("%s: failed to generate id: %v", normalizer.MsgInternal, err)
		res.Error = &msg
		return res
	}
	res.ID = id

	log := a.log.WithFields(logrus.Fields{"id": id, "file": u.Name()})
	input := a.paths.Input(id, ScratchExt(u.Name()))
	output := a.paths.Output(id)

	width, height, err := a.process(u, input, output)
	if err != nil {
		a.cleanup(log, output)
		if !a.keepFailed {
			a.cleanup(log, input)
		}
		msg := fmt.Sprintf("%s: %v", normalizer.UserMessage(err), err)
		res.Error = &msg
		log.WithError(err).Info("page failed")
		return res
	}

	a.cleanup(log, input)
	url := a.store.URL(output)
	res.NormalizedURL = &url
	res.Width = &width
	res.Height = &height
	log.WithFields(logrus.Fields{"width": width, "height": height}).Debug("page normalized")
	return res
}

// process copies the upload to input, validates it and writes the normalized
// page to output.
func (a *Adapter) process(u Upload, input, output string) (int, int, error) {
	if err := a.persist(u, input); err != nil {
		return 0, 0, err
	}

	size, err := a.store.Size(input)
	if err != nil {
		return 0, 0, &normalizer.LoadError{Path: u.Name(), Err: err}
	}
	if size == 0 {
		return 0, 0, &normalizer.LoadError{Path: u.Name(), Err: imaging.ErrEmptyImage}
	}

	r, err := a.store.Open(input)
	if err != nil {
		return 0, 0, &normalizer.LoadError{Path: u.Name(), Err: err}
	}
	page, err := a.normalizer.Normalize(r)
	r.Close()
	if err != nil {
		var (
			loadErr  *normalizer.LoadError
			notFound *normalizer.BoundaryNotFoundError
		)
		switch {
		case errors.As(err, &loadErr):
			loadErr.Path = u.Name()
		case errors.As(err, &notFound):
			notFound.Path = u.Name()
		}
		return 0, 0, err
	}

	w, err := a.store.Create(output)
	if err != nil {
		return 0, 0, &normalizer.IOError{Path: output, Err: err}
	}
	if err := a.normalizer.WriteJPEG(w, page); err != nil {
		w.Close()
		return 0, 0, &normalizer.IOError{Path: output, Err: err}
	}
	if err := w.Close(); err != nil {
		return 0, 0, &normalizer.IOError{Path: output, Err: err}
	}
	return page.Width(), page.Height(), nil
}

// persist copies the upload into the scratch input.
func (a *Adapter) persist(u Upload, input string) error {
	src, err := u.Open()
	if err != nil {
		return &normalizer.LoadError{Path: u.Name(), Err: err}
	}
	defer src.Close()

	dst, err := a.store.Create(input)
	if err != nil {
		return &normalizer.IOError{Path: input, Err: err}
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return &normalizer.IOError{Path: input, Err: err}
	}
	if err := dst.Close(); err != nil {
		return &normalizer.IOError{Path: input, Err: err}
	}
	return nil
}

func (a *Adapter) cleanup(log logrus.FieldLogger, key string) {
	if err := a.store.Remove(key); err != nil {
		log.WithError(err).WithField("key", key).Warn("failed to remove scratch file")
	}
}
