package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/trackvision/epcis-convert/internal/codec/jsoncodec"
	"github.com/trackvision/epcis-convert/internal/codec/xmlcodec"
	"github.com/trackvision/epcis-convert/internal/collector"
	"github.com/trackvision/epcis-convert/internal/contextreg"
	"github.com/trackvision/epcis-convert/internal/fabric"
	"github.com/trackvision/epcis-convert/internal/identifier"
	"github.com/trackvision/epcis-convert/internal/model"
	"github.com/trackvision/epcis-convert/internal/nsmap"
	"github.com/trackvision/epcis-convert/internal/scanner"
	"github.com/trackvision/epcis-convert/internal/xform"
)

// Stage names one step of a Plan.
type Stage int

const (
	StagePassthrough Stage = iota
	StageTransformSchemaVersion
	StageRecodeFormat
	StageNormalizeJSON
)

func (s Stage) String() string {
	switch s {
	case StagePassthrough:
		return "passthrough"
	case StageTransformSchemaVersion:
		return "transform-schema-version"
	case StageRecodeFormat:
		return "recode-format"
	case StageNormalizeJSON:
		return "normalize-json"
	default:
		return "unknown"
	}
}

// Plan builds the stage sequence for spec's from/to format-version pair.
// spec.FromVersion must already be resolved (ResolveFromVersion or a
// scanner.Detect result); Plan itself never scans. Unsupported
// combinations return ErrUnsupportedConversion before any stage runs.
func Plan(spec model.ConversionSpec) ([]Stage, error) {
	switch {
	case spec.FromFormat == model.FormatXML && spec.ToFormat == model.FormatXML:
		if spec.FromVersion == spec.ToVersion {
			return []Stage{StagePassthrough}, nil
		}
		return []Stage{StageTransformSchemaVersion}, nil

	case spec.FromFormat == model.FormatXML && spec.ToFormat == model.FormatJSONLD:
		if spec.ToVersion != model.SchemaVersion2_0 {
			return nil, fmt.Errorf("pipeline: JSON-LD target must be 2.0: %w", model.ErrUnsupportedConversion)
		}
		if spec.FromVersion == model.SchemaVersion1_2 {
			return []Stage{StageTransformSchemaVersion, StageRecodeFormat}, nil
		}
		return []Stage{StageRecodeFormat}, nil

	case spec.FromFormat == model.FormatJSONLD && spec.ToFormat == model.FormatXML:
		if spec.FromVersion != model.SchemaVersion2_0 {
			return nil, fmt.Errorf("pipeline: JSON-LD source must be 2.0: %w", model.ErrUnsupportedConversion)
		}
		if spec.ToVersion == model.SchemaVersion1_2 {
			return []Stage{StageRecodeFormat, StageTransformSchemaVersion}, nil
		}
		return []Stage{StageRecodeFormat}, nil

	case spec.FromFormat == model.FormatJSONLD && spec.ToFormat == model.FormatJSONLD:
		if spec.FromVersion != model.SchemaVersion2_0 || spec.ToVersion != model.SchemaVersion2_0 {
			return nil, fmt.Errorf("pipeline: JSON-LD only supports 2.0: %w", model.ErrUnsupportedConversion)
		}
		return []Stage{StageNormalizeJSON}, nil

	default:
		return nil, fmt.Errorf("pipeline: %s/%s -> %s/%s: %w",
			spec.FromFormat, spec.FromVersion, spec.ToFormat, spec.ToVersion, model.ErrUnsupportedConversion)
	}
}

// publishChunkSize is how much of src Convert reads per fabric.Publish
// call; it bounds how far a single slow Read can move demand, not the
// total document size.
const publishChunkSize = 32 * 1024

// Convert runs spec's Plan against src. The input side is carried by the
// Reactive Fabric (C8): a Publisher reads src in chunks behind a
// PrefetchWindow-sized demand semaphore while the format pipeline's first
// stage pulls from the paired PullReader, so a conversion never blocks on
// a single slow Read any more than PrefetchWindow chunks ahead, and an
// input source stalling partway through a document surfaces
// model.ErrUpstreamStalled instead of hanging forever. Cancelling ctx makes
// the returned Source fail with model.ErrConversionAborted. Convert returns a
// Source the caller reads the converted document from as soon as the
// first bytes are available; the fabric and the stage pipeline both run
// in the background until the caller drains it or an error short-circuits
// them.
func Convert(ctx context.Context, spec model.ConversionSpec, src fabric.Source, validator collector.Validator) (fabric.Source, error) {
	resolved := spec
	rr := scanner.NewResettableReader(src)

	if !resolved.ResolveFromVersion() {
		v, err := scanner.Detect(rr)
		if err != nil {
			return nil, err
		}
		resolved.FromVersion = v
	}

	stages, err := Plan(resolved)
	if err != nil {
		return nil, err
	}

	outR, outW := io.Pipe()
	go func() {
		runErr := fabric.Run(ctx,
			func(ctx context.Context, pub *fabric.Publisher) error {
				return publishFrom(ctx, rr, pub)
			},
			func(ctx context.Context, reader *fabric.PullReader) error {
				final, stageErr := runStages(ctx, &resolved, stages, fabric.Source(reader), validator)
				if stageErr == nil {
					_, stageErr = io.Copy(outW, final)
				}
				if stageErr != nil && ctx.Err() != nil {
					return fmt.Errorf("pipeline: %w", model.ErrConversionAborted)
				}
				return stageErr
			},
		)
		outW.CloseWithError(runErr)
	}()

	return outR, nil
}

// publishFrom reads r in publishChunkSize slices and hands each to pub,
// the Publisher side of the Reactive Fabric's demand-limited handoff.
func publishFrom(ctx context.Context, r io.Reader, pub *fabric.Publisher) error {
	for {
		buf := make([]byte, publishChunkSize)
		n, err := r.Read(buf)
		if n > 0 {
			if perr := pub.Publish(ctx, buf[:n]); perr != nil {
				return perr
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("pipeline: reading input: %w", err)
		}
	}
}

// runStages composes stages as a Flow task graph so the first stage's
// failure short-circuits the rest, same as any other Flow-driven step
// sequence in this codebase. validator is the injected per-event trait
// (nil accepts every event); OnFailure controls what happens when it
// rejects one.
func runStages(ctx context.Context, spec *model.ConversionSpec, stages []Stage, cur fabric.Source, validator collector.Validator) (fabric.Source, error) {
	f := NewFlow("convert")
	prevName := ""
	for i, stage := range stages {
		i, stage := i, stage
		name := fmt.Sprintf("stage-%d-%s", i, stage)
		var deps []string
		if prevName != "" {
			deps = []string{prevName}
		}
		followedByTransform := i+1 < len(stages) && stages[i+1] == StageTransformSchemaVersion
		f.AddTask(name, func() error {
			next, rerr := runStage(ctx, stage, spec, cur, validator, followedByTransform)
			if rerr != nil {
				return rerr
			}
			cur = next
			return nil
		}, deps...)
		prevName = name
	}

	if err := f.Run(ctx); err != nil {
		return nil, err
	}
	return cur, nil
}

// runStage executes one Plan stage against cur, returning the Source the
// next stage (or the caller) reads from. spec is mutated in place to
// reflect the format/version cur now carries, so a later stage in the
// same Plan sees the right "from" side. followedByTransform tells a
// recode stage to target schema version 2.0 rather than spec.ToVersion
// when a StageTransformSchemaVersion still has to run afterward (the
// JSON 2.0 -> XML 1.2 table entry: C5 always recodes at 2.0, C6 then
// downgrades).
func runStage(ctx context.Context, stage Stage, spec *model.ConversionSpec, cur fabric.Source, validator collector.Validator, followedByTransform bool) (fabric.Source, error) {
	switch stage {
	case StagePassthrough:
		return cur, nil

	case StageTransformSchemaVersion:
		raw, err := io.ReadAll(cur)
		if err != nil {
			return nil, fmt.Errorf("pipeline: reading input: %w", err)
		}
		to := spec.ToVersion
		if spec.ToFormat == model.FormatJSONLD {
			to = model.SchemaVersion2_0
		}
		features := xform.DefaultFeatureSet()
		if spec.GS1Compliant12 {
			features = xform.StrictFeatureSet()
		}
		out, err := xform.Transform(raw, spec.FromVersion, to, features)
		if err != nil {
			return nil, err
		}
		spec.FromVersion = to
		return bytes.NewReader(out), nil

	case StageRecodeFormat, StageNormalizeJSON:
		recodeSpec := *spec
		if followedByTransform {
			recodeSpec.ToVersion = model.SchemaVersion2_0
		}
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(streamRecode(ctx, recodeSpec, cur, pw, validator))
		}()
		spec.FromFormat = recodeSpec.ToFormat
		spec.FromVersion = recodeSpec.ToVersion
		return pr, nil

	default:
		return nil, fmt.Errorf("pipeline: unknown stage %v", stage)
	}
}

// streamRecode decodes in as spec.FromFormat/FromVersion, rewrites
// identifiers per spec.EPCPolicy/CBVPolicy, and collects into out encoded
// as spec.ToFormat/ToVersion. It is the only place C5 (codec), C4
// (identifier), and C9 (collector) meet.
func streamRecode(ctx context.Context, spec model.ConversionSpec, in io.Reader, out io.Writer, validator collector.Validator) error {
	ns := nsmap.NewResolver()
	reg := contextreg.NewDefaultRegistry()

	var (
		frame   *model.DocumentFrame
		next    func() (model.EventVariant, error)
		handler contextreg.Handler
	)

	switch spec.FromFormat {
	case model.FormatXML:
		dec, err := xmlcodec.NewDecoder(in, ns)
		if err != nil {
			return err
		}
		frame, next = dec.Frame(), dec.Next
	case model.FormatJSONLD:
		dec, err := jsoncodec.NewDecoder(in, ns, reg)
		if err != nil {
			return err
		}
		frame, next = dec.Frame(), dec.Next
		handler = dec.Handler()
	default:
		return fmt.Errorf("pipeline: %w", model.ErrUnsupportedMediaType)
	}

	if spec.ExtensionsToken != "" {
		handler = reg.SelectByToken(spec.ExtensionsToken)
	}
	if handler == nil {
		handler = reg.SelectByToken("")
	}

	outFrame := *frame
	outFrame.Format = spec.ToFormat
	outFrame.SchemaVersion = spec.ToVersion

	var sink collector.Sink
	switch spec.ToFormat {
	case model.FormatXML:
		enc := xmlcodec.NewEncoder(&outFrame, ns)
		sink = xmlSink{enc: enc, w: out}
	case model.FormatJSONLD:
		sink = jsonSink{enc: jsoncodec.NewEncoder(out, &outFrame, ns, handler)}
	default:
		return fmt.Errorf("pipeline: %w", model.ErrUnsupportedMediaType)
	}

	coll := collector.New(sink, validator, spec.OnFailure)

	if err := ctx.Err(); err != nil {
		return err
	}

	if frame.SingleEvent {
		ev, err := next()
		if err != nil {
			return err
		}
		if err := rewriteIdentifiers(ev, spec); err != nil {
			return err
		}
		return coll.CollectSingleEvent(ev)
	}

	if err := coll.Start(outFrame.FrameAttrs); err != nil {
		return err
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err := rewriteIdentifiers(ev, spec); err != nil {
			return err
		}
		if err := coll.Handle(ev); err != nil {
			return err
		}
	}
	return coll.End()
}

func rewriteIdentifiers(ev model.EventVariant, spec model.ConversionSpec) error {
	if err := identifier.RewriteEventIdentifiers(ev, spec.EPCPolicy, spec.GCPLengthHint); err != nil {
		return err
	}
	identifier.RewriteCBVCodes(ev, spec.CBVPolicy)
	return nil
}

// xmlSink adapts xmlcodec.Encoder to collector.Sink: its Close takes the
// destination io.Writer explicitly rather than capturing it up front.
type xmlSink struct {
	enc *xmlcodec.Encoder
	w   io.Writer
}

func (s xmlSink) Write(ev model.EventVariant) error { return s.enc.Write(ev) }
func (s xmlSink) Close() error                      { return s.enc.Close(s.w) }

// jsonSink adapts jsoncodec.Encoder to collector.Sink.
type jsonSink struct {
	enc *jsoncodec.Encoder
}

func (s jsonSink) Write(ev model.EventVariant) error { return s.enc.Write(ev) }
func (s jsonSink) Close() error                      { return s.enc.Close() }
