package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trebuchet-org/mangonel/internal/domain"
	"github.com/trebuchet-org/mangonel/internal/domain/config"
)

// GenerateABIParams contains parameters for ABI generation
type GenerateABIParams struct {
	Files  []string
	OutDir string
}

// GeneratedABI is one written interface descriptor
type GeneratedABI struct {
	File     string
	Contract string
	Path     string
}

// GenerateABI preprocesses and compiles sources offline and writes their ABIs.
// Address macros without a value compile against the zero address.
type GenerateABI struct {
	config    *config.RuntimeConfig
	processor SourceProcessor
	compiler  Compiler
	writer    ABIWriter
	progress  ProgressSink
	log       *slog.Logger
}

// NewGenerateABI creates a new GenerateABI use case
func NewGenerateABI(
	cfg *config.RuntimeConfig,
	processor SourceProcessor,
	compiler Compiler,
	writer ABIWriter,
	progress ProgressSink,
	log *slog.Logger,
) *GenerateABI {
	if progress == nil {
		progress = NopProgress{}
	}
	return &GenerateABI{
		config:    cfg,
		processor: processor,
		compiler:  compiler,
		writer:    writer,
		progress:  progress,
		log:       log.With("component", "GenerateABI"),
	}
}

// Run generates an ABI file per source
func (uc *GenerateABI) Run(ctx context.Context, params GenerateABIParams) ([]GeneratedABI, error) {
	if len(params.Files) == 0 {
		return nil, fmt.Errorf("no source files given")
	}

	generated := make([]GeneratedABI, 0, len(params.Files))
	for _, file := range params.Files {
		source, err := uc.processor.Process(ctx, ProcessRequest{
			File:                    file,
			SourceDir:               uc.config.ContractDir,
			ReplaceUnknownAddresses: true,
		})
		if err != nil {
			return generated, asCompilationError(file, err)
		}

		d := domain.Deployment{File: file}
		compiled, err := uc.compiler.Compile(ctx, d.Language(), source)
		if err != nil {
			return generated, asCompilationError(file, err)
		}

		name := d.ContractName()
		path, err := uc.writer.WriteABI(params.OutDir, name, compiled.ABI)
		if err != nil {
			return generated, fmt.Errorf("failed to write abi for %s: %w", file, err)
		}

		uc.progress.Info(fmt.Sprintf("%s ABI generated.", file))
		generated = append(generated, GeneratedABI{File: file, Contract: compiled.Name, Path: path})
	}
	return generated, nil
}
