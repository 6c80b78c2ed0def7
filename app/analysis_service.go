package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gosigma/domain/capability"
	"gosigma/domain/core"
	"gosigma/domain/doe"
	"gosigma/domain/spc"
	"gosigma/internal"
	capengine "gosigma/internal/analysis/capability"
	"gosigma/internal/analysis/control"
	doeengine "gosigma/internal/analysis/doe"
	"gosigma/internal/config"
	"gosigma/internal/errors"
	"gosigma/ports"

	"golang.org/x/sync/errgroup"
)

// AnalysisService runs the control, capability and DOE engines on behalf of the API and
// CLI, applying configured defaults and optionally persisting each result
type AnalysisService struct {
	repo     ports.AnalysisRepository
	defaults config.AnalysisConfig
	logger   *internal.Logger
	now      func() time.Time
}

// NewAnalysisService creates the service. A nil repo disables persistence.
func NewAnalysisService(repo ports.AnalysisRepository, defaults config.AnalysisConfig, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	if defaults.DefaultSigmaLevel <= 0 {
		defaults.DefaultSigmaLevel = control.DefaultSigmaLevel
	}
	if defaults.HistogramBins <= 0 {
		defaults.HistogramBins = capengine.DefaultBins
	}
	if defaults.PValueMode == "" {
		defaults.PValueMode = doe.PValueLegacy
	}
	if defaults.BatchConcurrency <= 0 {
		defaults.BatchConcurrency = 1
	}
	return &AnalysisService{
		repo:     repo,
		defaults: defaults,
		logger:   logger.WithComponent("AnalysisService"),
		now:      time.Now,
	}
}

// PersistenceEnabled reports whether results are stored
func (s *AnalysisService) PersistenceEnabled() bool {
	return s.repo != nil
}

// ControlLimits computes limits and rule violations for one series
func (s *AnalysisService) ControlLimits(ctx context.Context, req ControlRequest) (*ControlResponse, error) {
	start := time.Now()
	limits, err := s.controlLimits(req.Series, req.SigmaLevel, req.CheckRules)
	if err != nil {
		s.logger.Warn("Control limits rejected: %v", err)
		return nil, errors.Wrap(err, "control limits")
	}

	id, err := s.persist(ctx, core.AnalysisControlLimits, req.Label, req, limits)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Control limits for %d points: %d beyond limits, %d rule signals (%s)",
		limits.SampleSize, len(limits.Violations), len(limits.RuleViolations), time.Since(start))
	return &ControlResponse{ID: id, Limits: limits}, nil
}

func (s *AnalysisService) controlLimits(series []float64, sigmaLevel float64, checkRules *bool) (*spc.ControlLimits, error) {
	opts := control.Options{SigmaLevel: sigmaLevel, CheckRules: true}
	if opts.SigmaLevel == 0 {
		opts.SigmaLevel = s.defaults.DefaultSigmaLevel
	}
	if checkRules != nil {
		opts.CheckRules = *checkRules
	}
	return control.CalculateControlLimits(series, opts)
}

// Capability runs a capability study, adding a histogram when asked
func (s *AnalysisService) Capability(ctx context.Context, req CapabilityRequest) (*CapabilityResponse, error) {
	start := time.Now()
	result, err := capengine.CalculateCapability(req.input())
	if err != nil {
		s.logger.Warn("Capability study rejected: %v", err)
		return nil, errors.Wrap(err, "capability")
	}

	resp := &CapabilityResponse{Result: result}
	if req.Histogram || req.Bins > 0 {
		resp.Histogram, err = s.histogram(req.Series, req.USL, req.LSL, req.Bins)
		if err != nil {
			return nil, errors.Wrap(err, "histogram")
		}
	}

	resp.ID, err = s.persist(ctx, core.AnalysisCapability, req.Label, req, resp)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Capability for %d points: Cpk %.3f (%s) in %s",
		result.SampleSize, result.Cpk, result.Level, time.Since(start))
	return resp, nil
}

// Histogram bins a series against its specification limits
func (s *AnalysisService) Histogram(ctx context.Context, req HistogramRequest) (*CapabilityResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bins, err := s.histogram(req.Series, req.USL, req.LSL, req.Bins)
	if err != nil {
		return nil, errors.Wrap(err, "histogram")
	}
	return &CapabilityResponse{Histogram: bins}, nil
}

func (s *AnalysisService) histogram(series []float64, usl, lsl float64, bins int) ([]capability.HistogramBin, error) {
	if bins <= 0 {
		bins = s.defaults.HistogramBins
	}
	return capengine.Histogram(series, usl, lsl, bins)
}

// Design generates an experiment matrix
func (s *AnalysisService) Design(ctx context.Context, req DesignRequest) (*DesignResponse, error) {
	design, err := generateDesign(req)
	if err != nil {
		s.logger.Warn("Design generation rejected: %v", err)
		return nil, errors.Wrap(err, "design")
	}

	id, err := s.persist(ctx, core.AnalysisDOEDesign, req.Label, req, design)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Generated %s design: %d runs x %d factors", design.Type, design.RunCount(), len(design.Factors))
	return &DesignResponse{ID: id, Design: design}, nil
}

func generateDesign(req DesignRequest) (*doe.DesignMatrix, error) {
	k := req.K
	if len(req.Factors) > 0 {
		k = len(req.Factors)
	}

	var design *doe.DesignMatrix
	var err error
	switch req.Type {
	case doe.DesignFullFactorial:
		design, err = doeengine.FullFactorial(req.Factors)
		if err == nil && req.Coded {
			design, err = doeengine.Code(design, req.Factors)
		}
		return design, err
	case doe.DesignTwoLevel:
		design, err = doeengine.TwoLevel(k)
	case doe.DesignHalfFraction:
		design, err = doeengine.HalfFraction(k)
	case doe.DesignPlackettBurman:
		design, err = doeengine.PlackettBurman(k)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unknown design type %q", req.Type))
	}
	if err != nil {
		return nil, err
	}
	for i, f := range req.Factors {
		if f.Name != "" {
			design.Factors[i] = f.Name
		}
	}
	return design, nil
}

// AnalyzeDOE runs effects, ANOVA, optimization and residuals over a design
func (s *AnalysisService) AnalyzeDOE(ctx context.Context, req DOERequest) (*DOEResponse, error) {
	start := time.Now()
	opts := doeengine.Options{PValueMode: req.PValueMode}
	if opts.PValueMode == "" {
		opts.PValueMode = s.defaults.PValueMode
	}

	var analysis *doe.Analysis
	var err error
	if req.Uncoded {
		design := &doe.DesignMatrix{Factors: req.Factors, Runs: req.Runs}
		analysis, err = doeengine.AnalyzeDesign(design, req.Response, req.Spec, opts)
	} else {
		analysis, err = doeengine.Analyze(req.Runs, req.Response, req.Factors, req.Spec, opts)
	}
	if err != nil {
		s.logger.Warn("DOE analysis rejected: %v", err)
		return nil, errors.Wrap(err, "doe analysis")
	}

	id, err := s.persist(ctx, core.AnalysisDOE, req.Label, req, analysis)
	if err != nil {
		return nil, err
	}
	s.logger.Info("DOE analysis over %d runs: R² %.3f, optimum %.4g (%s)",
		analysis.RunCount, analysis.ANOVA.RSquared, analysis.PredictedOptimum, time.Since(start))
	return &DOEResponse{ID: id, Analysis: analysis}, nil
}

// BatchControlLimits computes limits for every series concurrently, bounded by the
// configured concurrency. A failing series is reported in its item and does not stop
// the others; only cancellation aborts the batch. Batch results are not persisted.
func (s *AnalysisService) BatchControlLimits(ctx context.Context, req BatchControlRequest) (*BatchControlResponse, error) {
	if len(req.Series) == 0 {
		return nil, errors.InvalidInput("batch needs at least one series")
	}
	start := time.Now()
	items := make([]BatchItem, len(req.Series))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.defaults.BatchConcurrency)
	for i, series := range req.Series {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			items[i].Name = series.Name
			limits, err := s.controlLimits(series.Values, req.SigmaLevel, req.CheckRules)
			if err != nil {
				appErr := errors.FromDomain(err)
				items[i].Error = err.Error()
				items[i].ErrorCode = errors.GetCode(appErr)
				return nil
			}
			items[i].Limits = limits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &BatchControlResponse{Items: items}
	for _, item := range items {
		switch {
		case item.Limits == nil:
			resp.Failed++
		case !item.Limits.InControl():
			resp.OutOfControl++
		}
	}
	s.logger.Info("Batch of %d series: %d failed, %d out of control (%s)",
		len(items), resp.Failed, resp.OutOfControl, time.Since(start))
	return resp, nil
}

// GetAnalysis loads a stored record
func (s *AnalysisService) GetAnalysis(ctx context.Context, rawID string) (*core.AnalysisRecord, error) {
	if s.repo == nil {
		return nil, errors.NotFound("analysis storage")
	}
	id, err := core.ParseID(rawID)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	return s.repo.Get(ctx, id)
}

// ListAnalyses returns recent records of a kind, newest first
func (s *AnalysisService) ListAnalyses(ctx context.Context, kind core.AnalysisKind, limit int) ([]core.AnalysisRecord, error) {
	if s.repo == nil {
		return nil, errors.NotFound("analysis storage")
	}
	return s.repo.List(ctx, kind, limit)
}

// persist stores input and result under a new ID. Identical inputs of the same kind
// reuse the existing record since every engine is deterministic.
func (s *AnalysisService) persist(ctx context.Context, kind core.AnalysisKind, label string, input, result interface{}) (core.ID, error) {
	if s.repo == nil {
		return "", nil
	}
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode analysis input")
	}
	hash := core.NewHash(append([]byte(kind+":"), inputJSON...))

	existing, err := s.repo.FindByHash(ctx, kind, hash)
	if err != nil {
		s.logger.Error("Lookup of %s %s failed: %v", kind, hash.Short(), err)
		return "", err
	}
	if existing != nil {
		s.logger.Debug("Reusing %s record %s for input %s", kind, existing.ID, hash.Short())
		return existing.ID, nil
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode analysis result")
	}
	record := &core.AnalysisRecord{
		ID:        core.NewID(),
		Kind:      kind,
		Label:     label,
		InputHash: hash,
		Input:     inputJSON,
		Result:    resultJSON,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Save(ctx, record); err != nil {
		s.logger.Error("Saving %s record failed: %v", kind, err)
		return "", err
	}
	s.logger.Debug("Saved %s record %s", kind, record.ID)
	return record.ID, nil
}
