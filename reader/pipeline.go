package reader

import (
	"context"
	"fmt"
	"iter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goevtx/evtx/cache"
	"github.com/goevtx/evtx/cursor"
	"github.com/goevtx/evtx/errs"
	"github.com/goevtx/evtx/internal/spool"
	"github.com/goevtx/evtx/model"
	"github.com/goevtx/evtx/section"
	"github.com/goevtx/evtx/serialize"
	"github.com/goevtx/evtx/value"
)

// recordMeta is one decoded record's small, always-resident fields. Its
// rendered text lives in the owning chunkResult's spooled (possibly
// compressed) byte slice instead, so a chunk that is finished well before
// its turn to be emitted doesn't pin its full rendered text uncompressed.
type recordMeta struct {
	EventRecordID uint64
	Timestamp     time.Time
	Position      Position
	Warnings      []Warning
	textLen       int
}

// chunkResult is what one chunk-decoding worker hands back to the ordering
// goroutine: the chunk's record metadata plus its spooled rendered text, in
// file order.
type chunkResult struct {
	index   int
	metas   []recordMeta
	spooled []byte
	err     error
}

// RecordStream decodes file's chunks according to cfg and yields its event
// records in file order, regardless of how many goroutines decoded them
// (spec §5, §9 "parallel-vs-serial determinism"). Ranging stops the
// remaining workers via context cancellation (Go 1.23 range-over-func
// cleanup semantics run the loop's implicit stop, which cancels ctx).
func RecordStream(file *File, cfg *Config) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		cp := serialize.NewCodePage(cfg.ANSICodePage)
		value.SetANSIDecoder(cp.Decode)

		sp, err := spool.New(cfg.SpoolCompression)
		if err != nil {
			yield(Record{}, err)
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		chunkCount := file.ChunkCount()
		results := make(chan chunkResult, cfg.Threads)

		eg, egCtx := errgroup.WithContext(ctx)
		eg.SetLimit(cfg.Threads)

		go func() {
			for i := 0; i < chunkCount; i++ {
				if egCtx.Err() != nil {
					break
				}
				idx := i
				eg.Go(func() error {
					metas, text, werr := processChunk(file, idx, cfg)

					spooled, perr := sp.Pack(text)
					if perr != nil && werr == nil {
						werr = perr
					}

					select {
					case results <- chunkResult{index: idx, metas: metas, spooled: spooled, err: werr}:
					case <-egCtx.Done():
					}

					return nil
				})
			}

			eg.Wait()
			close(results)
		}()

		pending := make(map[int]chunkResult)
		next := 0
		stopped := false

		for r := range results {
			if stopped {
				continue
			}

			pending[r.index] = r

			for {
				cr, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++

				if cr.err != nil && !cfg.StopOnError {
					if !yield(Record{}, cr.err) {
						stopped = true
					}
				}

				if !stopped {
					recs, uerr := expandChunkResult(sp, cr)
					if uerr != nil {
						if !yield(Record{}, uerr) {
							stopped = true
						}
					} else {
						for _, rec := range recs {
							if !yield(rec, nil) {
								stopped = true
								break
							}
						}
					}
				}

				if cr.err != nil && cfg.StopOnError && !stopped {
					yield(Record{}, cr.err)
					stopped = true
				}

				if stopped {
					cancel()
					break
				}
			}

			if stopped {
				break
			}
		}

		if stopped {
			for range results {
			}
		}
	}
}

// expandChunkResult decompresses cr's spooled text and pairs each slice back
// up with its recordMeta in order.
func expandChunkResult(sp *spool.Spool, cr chunkResult) ([]Record, error) {
	text, err := sp.Unpack(cr.spooled)
	if err != nil {
		return nil, err
	}

	recs := make([]Record, len(cr.metas))
	off := 0

	for i, m := range cr.metas {
		if off+m.textLen > len(text) {
			return nil, fmt.Errorf("%w: spooled record text shorter than recorded length", errs.ErrSerialisation)
		}

		recs[i] = Record{
			EventRecordID: m.EventRecordID,
			Timestamp:     m.Timestamp,
			Data:          string(text[off : off+m.textLen]),
			Position:      m.Position,
			Warnings:      m.Warnings,
		}
		off += m.textLen
	}

	return recs, nil
}

// processChunk decodes every record in the chunk at idx, applying cfg's
// record-ID filter and error policy. An error surfaced while Chunk.Records
// resyncs past bad framing becomes a Warning on the next successfully
// decoded record rather than its own Record value, since there is no event
// to attach it to otherwise.
func processChunk(file *File, idx int, cfg *Config) ([]recordMeta, []byte, error) {
	data, offset, err := file.ReadChunkAt(idx)
	if err != nil {
		return nil, nil, err
	}

	chunk, err := NewChunk(idx, data, offset, cfg.ValidateChecksums)
	if err != nil {
		return nil, nil, err
	}

	chunkCache := cache.NewChunk()
	ptrWidth := file.Header.PointerWidth()

	var metas []recordMeta
	var text []byte
	var carried []Warning

	for raw, rerr := range chunk.Records() {
		if rerr != nil {
			if cfg.StopOnError {
				return metas, text, rerr
			}
			carried = append(carried, Warning{Kind: errs.Of(rerr), Chunk: idx, Err: rerr})
			continue
		}

		if cfg.HasRecordIDRange && (raw.Header.RecordID < cfg.MinRecordID || raw.Header.RecordID > cfg.MaxRecordID) {
			continue
		}

		meta, rendered, decErr := decodeRecord(raw, chunkCache, offset, ptrWidth, idx, cfg)
		if decErr != nil {
			if cfg.StopOnError {
				return metas, text, decErr
			}
			recordID := raw.Header.RecordID
			carried = append(carried, Warning{
				Kind:         errs.Of(decErr),
				Chunk:        idx,
				RecordOffset: int(raw.Offset - offset),
				RecordID:     &recordID,
				Err:          decErr,
			})
			continue
		}

		if len(carried) > 0 {
			meta.Warnings = append(meta.Warnings, carried...)
			carried = nil
		}

		meta.textLen = len(rendered)
		text = append(text, rendered...)
		metas = append(metas, meta)
	}

	return metas, text, nil
}

func decodeRecord(raw RawRecord, chunkCache *cache.Chunk, chunkStart int64, ptrWidth, chunkIdx int, cfg *Config) (recordMeta, []byte, error) {
	r := cursor.New(raw.Body, raw.Offset+section.RecordHeaderSize)

	node, warnings, err := model.AssembleRecord(r, chunkCache, chunkStart, ptrWidth)
	if err != nil {
		return recordMeta{}, nil, err
	}

	var data string
	var renderWarnings []string

	switch cfg.Format {
	case FormatJSON:
		data, err = serialize.JSONString(node)
	case FormatJSONPretty:
		data, err = serialize.JSONStringIndent(node, "", "  ")
	default:
		data, renderWarnings, err = serialize.XMLString(node)
	}
	if err != nil {
		return recordMeta{}, nil, err
	}

	recordID := raw.Header.RecordID

	meta := recordMeta{
		EventRecordID: raw.Header.RecordID,
		Timestamp:     value.FileTimeToTime(raw.Header.FileTime),
		Position:      Position{ChunkIndex: chunkIdx, RecordOffset: int(raw.Offset - chunkStart)},
	}

	for _, w := range warnings {
		meta.Warnings = append(meta.Warnings, Warning{Chunk: chunkIdx, RecordID: &recordID, Err: fmt.Errorf("%s", w.Message)})
	}
	for _, w := range renderWarnings {
		meta.Warnings = append(meta.Warnings, Warning{Kind: errs.KindSerialisation, Chunk: chunkIdx, RecordID: &recordID, Err: fmt.Errorf("%s", w)})
	}

	return meta, []byte(data), nil
}
