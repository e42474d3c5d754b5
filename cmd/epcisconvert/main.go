// cmd/epcisconvert is a debug entry point for exercising the conversion
// core by hand, analogous to scripts/test_xml_generation.go: it is not
// the product interface (that's pipeline.Convert, called over HTTP by
// whatever service wraps this module), just a way to run a file through
// the pipeline from a terminal.
//
// Usage:
//
//	go run ./cmd/epcisconvert -in doc.xml -to-format json -to-version 2.0
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/trackvision/epcis-convert/configs"
	"github.com/trackvision/epcis-convert/internal/model"
	"github.com/trackvision/epcis-convert/internal/obslog"
	"github.com/trackvision/epcis-convert/internal/pipeline"
)

func main() {
	inPath := flag.String("in", "", "path to the input document (required)")
	outPath := flag.String("out", "", "path to write the converted document (default: stdout)")
	fromFormat := flag.String("from-format", "xml", "xml | json")
	toFormat := flag.String("to-format", "xml", "xml | json")
	fromVersion := flag.String("from-version", "", "1.2 | 2.0 (omit to auto-detect from the input)")
	toVersion := flag.String("to-version", "2.0", "1.2 | 2.0")
	gs1Compliant12 := flag.Bool("gs1-compliant-1.2", false, "drop 2.0-only constructs when downgrading to 1.2")
	epcFormat := flag.String("epc-format", "", "No_Preference | Always_GS1_Digital_Link | Always_EPC_URN | Never_Translates")
	cbvFormat := flag.String("cbv-format", "", "No_Preference | Always_Web_URI | Always_URN | Never_Translates")
	gcpLength := flag.Int("gcp-length", 0, "GCP length hint for Web-URI -> URN rewrites that can't infer it")
	onFailure := flag.String("on-failure", "", "abort | skip (overrides the config default)")
	flag.Parse()

	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "epcisconvert: -in is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := configs.Load()
	if err != nil {
		obslog.Fatal("loading config", zap.Error(err))
	}

	spec, err := buildSpec(cfg, *fromFormat, *toFormat, *fromVersion, *toVersion, *gs1Compliant12, *epcFormat, *cbvFormat, *gcpLength, *onFailure)
	if err != nil {
		obslog.Error("building conversion spec", zap.Error(err))
		os.Exit(1)
	}

	in, err := os.Open(*inPath)
	if err != nil {
		obslog.Error("opening input", zap.Error(err))
		os.Exit(1)
	}
	defer in.Close()

	out := io.Writer(os.Stdout)
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			obslog.Error("creating output", zap.Error(err))
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	result, err := pipeline.Convert(context.Background(), spec, in, nil)
	if err != nil {
		obslog.Error("conversion failed", zap.Error(err))
		os.Exit(1)
	}

	if _, err := io.Copy(out, result); err != nil {
		obslog.Error("writing output", zap.Error(err))
		os.Exit(1)
	}
}

func buildSpec(cfg *configs.Config, fromFormatStr, toFormatStr, fromVersionStr, toVersionStr string, gs1Compliant12 bool, epcFormatStr, cbvFormatStr string, gcpLength int, onFailureStr string) (model.ConversionSpec, error) {
	var spec model.ConversionSpec

	var ok bool
	if spec.FromFormat, ok = parseFormat(fromFormatStr); !ok {
		return spec, fmt.Errorf("epcisconvert: unknown -from-format %q", fromFormatStr)
	}
	if spec.ToFormat, ok = parseFormat(toFormatStr); !ok {
		return spec, fmt.Errorf("epcisconvert: unknown -to-format %q", toFormatStr)
	}

	if fromVersionStr != "" {
		v, ok := model.ParseSchemaVersion(fromVersionStr)
		if !ok {
			return spec, fmt.Errorf("epcisconvert: unknown -from-version %q", fromVersionStr)
		}
		spec.FromVersion = v
	}

	toVersion, ok := model.ParseSchemaVersion(toVersionStr)
	if !ok {
		return spec, fmt.Errorf("epcisconvert: unknown -to-version %q", toVersionStr)
	}
	spec.ToVersion = toVersion
	spec.GS1Compliant12 = gs1Compliant12
	spec.GCPLengthHint = gcpLength

	epcToken := epcFormatStr
	if epcToken == "" {
		epcToken = cfg.DefaultEPCFormat
	}
	epcPolicy, ok := model.ParseRewritePolicy(epcToken)
	if !ok {
		return spec, fmt.Errorf("epcisconvert: unknown -epc-format %q", epcToken)
	}
	spec.EPCPolicy = epcPolicy

	cbvToken := cbvFormatStr
	if cbvToken == "" {
		cbvToken = cfg.DefaultCBVFormat
	}
	cbvPolicy, ok := model.ParseCBVPolicy(cbvToken)
	if !ok {
		return spec, fmt.Errorf("epcisconvert: unknown -cbv-format %q", cbvToken)
	}
	spec.CBVPolicy = cbvPolicy

	failureToken := onFailureStr
	if failureToken == "" {
		failureToken = cfg.DefaultOnFailure
	}
	switch failureToken {
	case "abort", "":
		spec.OnFailure = model.OnFailureAbort
	case "skip":
		spec.OnFailure = model.OnFailureSkipAndContinue
	default:
		return spec, fmt.Errorf("epcisconvert: unknown -on-failure %q", failureToken)
	}

	return spec, nil
}

func parseFormat(s string) (model.Format, bool) {
	switch s {
	case "xml":
		return model.FormatXML, true
	case "json":
		return model.FormatJSONLD, true
	default:
		return model.FormatXML, false
	}
}
