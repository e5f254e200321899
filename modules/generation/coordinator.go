package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"vitrine-studio-server/modules/analyze"
	"vitrine-studio-server/modules/brand"
	"vitrine-studio-server/modules/common/credit"
	"vitrine-studio-server/modules/common/fallback"
	"vitrine-studio-server/modules/common/model"
	"vitrine-studio-server/modules/detect"
)

// 파이프라인 진행 단계 (progress 이벤트용)
const (
	StageQueued      = "queued"
	StageDetecting   = "detecting"
	StageCompositing = "compositing"
	StageGenerating  = "generating"
	StageBilling     = "billing"
	StageDone        = "done"
	StageFailed      = "failed"
)

// ProgressFunc - 단계 전환 알림 콜백 (nil 허용)
type ProgressFunc func(stage string)

// CreditLedger - 잔액 확인 + 원자적 차감
type CreditLedger interface {
	CheckBalance(ctx context.Context, userID string, required int) (int, error)
	Debit(ctx context.Context, userID string, units int, reason string, refType string, refID string) (int, error)
}

// Analyzer - 상품 속성 분석 (절대 실패하지 않음)
type Analyzer interface {
	Analyze(ctx context.Context, imageData []byte, mimeType string) analyze.ProductAnalysis
}

// Detector - 멀티 상품 검출 (항상 1개 이상 반환)
type Detector interface {
	Detect(ctx context.Context, imageData []byte, mimeType string) detect.DetectResult
}

// CleanRefBuilder - 상품 영역만 오려낸 참조 이미지 생성
type CleanRefBuilder interface {
	BuildCleanReference(ctx context.Context, originalRef string, bbox model.BoundingBox, outlinePath string) ([]byte, error)
}

// BrandLookup - 브랜드 DNA 조회
type BrandLookup interface {
	Fetch(ctx context.Context, brandID string) (*brand.BrandDNA, error)
}

// CaptionWriter - 소셜 캡션 생성
type CaptionWriter interface {
	Generate(ctx context.Context, analysis *analyze.ProductAnalysis, dna *brand.BrandDNA) (string, error)
}

// SessionStore - 생성 세션 감사 기록
type SessionStore interface {
	CreateSession(ctx context.Context, record *model.SessionRecord) (string, error)
}

// AnalysisCache - 상품별 최근 분석 결과 조회 (append-only 테이블)
type AnalysisCache interface {
	FetchLatestProductAnalysis(ctx context.Context, productID string) (json.RawMessage, error)
}

// ImageSource - 상품 원본 이미지 해석
type ImageSource interface {
	FetchImage(ctx context.Context, ref string) ([]byte, string, error)
}

// Coordinator runs one generation end to end and owns the billing contract:
// credits are debited atomically AFTER the image is generated and stored, so
// a failed generation never charges the user. The pre-flight balance check is
// advisory only; the debit itself is the compare-and-decrement that decides.
type Coordinator struct {
	credits    CreditLedger
	analyzer   Analyzer
	detector   Detector
	compositor CleanRefBuilder
	brands     BrandLookup
	captions   CaptionWriter
	sessions   SessionStore
	cache      AnalysisCache
	source     ImageSource
	invoker    *Invoker
	creditCost int
}

type CoordinatorDeps struct {
	Credits    CreditLedger
	Analyzer   Analyzer
	Detector   Detector
	Compositor CleanRefBuilder
	Brands     BrandLookup
	Captions   CaptionWriter
	Sessions   SessionStore
	Cache      AnalysisCache
	Source     ImageSource
	Invoker    *Invoker
	CreditCost int
}

func NewCoordinator(deps CoordinatorDeps) *Coordinator {
	return &Coordinator{
		credits:    deps.Credits,
		analyzer:   deps.Analyzer,
		detector:   deps.Detector,
		compositor: deps.Compositor,
		brands:     deps.Brands,
		captions:   deps.Captions,
		sessions:   deps.Sessions,
		cache:      deps.Cache,
		source:     deps.Source,
		invoker:    deps.Invoker,
		creditCost: deps.CreditCost,
	}
}

// RunGeneration - 생성 파이프라인 1회 실행
func (c *Coordinator) RunGeneration(ctx context.Context, userID string, brief *GenerationBrief, progress ProgressFunc) (*GenerationResult, error) {
	notify := func(stage string) {
		if progress != nil {
			progress(stage)
		}
	}

	if err := brief.Validate(); err != nil {
		return nil, err
	}

	// pre-flight 잔액 확인 (최종 판정은 생성 후 원자적 차감이 한다)
	if _, err := c.credits.CheckBalance(ctx, userID, c.creditCost); err != nil {
		var insufficient *credit.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			return nil, err
		}
		return nil, fmt.Errorf("credit pre-check failed: %w", err)
	}

	productData, productMime, err := c.source.FetchImage(ctx, brief.Product.ReferenceImageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve product reference: %w", err)
	}

	// 검출 + clean reference는 품질 향상 단계: 실패해도 원본 참조로 생성을 계속한다
	notify(StageDetecting)
	var cleanRef []byte
	primary := c.primaryProduct(ctx, productData, productMime)

	notify(StageCompositing)
	if primary != nil {
		cleanRef, err = c.compositor.BuildCleanReference(ctx, brief.Product.ReferenceImageURL, primary.BoundingBox, primary.OutlinePath)
		if err != nil {
			log.Printf("⚠️  [Generation] Clean reference failed, using raw reference: %v", err)
			cleanRef = nil
		}
	}

	// 분석과 브랜드 조회는 서로 독립: 동시 실행
	analysis := brief.Product.Analysis
	if analysis == nil {
		analysis = c.cachedAnalysis(ctx, brief.Product.ProductID)
	}
	var dna *brand.BrandDNA

	g, gctx := errgroup.WithContext(ctx)
	if analysis == nil {
		g.Go(func() error {
			result := c.analyzer.Analyze(gctx, productData, productMime)
			analysis = &result
			return nil
		})
	}
	if brief.BrandID != "" && c.brands != nil {
		g.Go(func() error {
			fetched, err := c.brands.Fetch(gctx, brief.BrandID)
			if err != nil {
				log.Printf("⚠️  [Generation] Brand lookup failed, continuing without DNA: %v", err)
				return nil
			}
			dna = fetched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// brief는 호출자 소유의 읽기 전용 값: 분석 결과는 복사본에만 채운다
	enriched := *brief
	enriched.Product.Analysis = analysis
	prompt, negativePrompt := BuildPrompt(&enriched, dna)

	notify(StageGenerating)
	outputURL, err := c.invoker.Invoke(ctx, &enriched, cleanRef, prompt, negativePrompt, userID)
	if err != nil {
		// 생성 실패 = 과금 없음
		return nil, err
	}

	// 생성 성공 후에만 차감. 동시 요청이 잔액을 먼저 소진했으면 별도 에러.
	notify(StageBilling)
	remaining, err := c.credits.Debit(ctx, userID, c.creditCost, "image generation", "generation_session", outputURL)
	if err != nil {
		var insufficient *credit.InsufficientCreditsError
		if errors.As(err, &insufficient) {
			return nil, fmt.Errorf("%w: %v", ErrDebitRace, err)
		}
		return nil, fmt.Errorf("failed to debit credits: %w", err)
	}

	result := &GenerationResult{
		OutputImageURL:   outputURL,
		Prompt:           prompt,
		NegativePrompt:   negativePrompt,
		CreditsCost:      c.creditCost,
		CreditsRemaining: remaining,
	}

	// 캡션과 세션 기록은 best-effort: 실패해도 결과는 이미 확정
	if c.captions != nil {
		fallback.BestEffort("generate caption", func() error {
			caption, err := c.captions.Generate(ctx, analysis, dna)
			if err != nil {
				return err
			}
			result.Caption = caption
			return nil
		})
	}

	if c.sessions != nil {
		fallback.BestEffort("persist generation session", func() error {
			sessionID, err := c.sessions.CreateSession(ctx, c.sessionRecord(userID, brief, result))
			if err != nil {
				return err
			}
			result.SessionID = sessionID
			return nil
		})
	}

	notify(StageDone)
	return result, nil
}

// cachedAnalysis - 이전 분석 결과 재사용 (없거나 실패하면 nil)
func (c *Coordinator) cachedAnalysis(ctx context.Context, productID string) *analyze.ProductAnalysis {
	if c.cache == nil || productID == "" {
		return nil
	}
	raw, err := c.cache.FetchLatestProductAnalysis(ctx, productID)
	if err != nil || raw == nil {
		return nil
	}
	var cached analyze.ProductAnalysis
	if err := json.Unmarshal(raw, &cached); err != nil {
		log.Printf("⚠️  [Generation] Ignoring unreadable cached analysis for %s: %v", productID, err)
		return nil
	}
	log.Printf("✅ [Generation] Reusing cached analysis for product %s", productID)
	return &cached
}

// primaryProduct - 검출 결과 중 bbox 면적이 가장 큰 상품
func (c *Coordinator) primaryProduct(ctx context.Context, imageData []byte, mimeType string) *detect.DetectedProduct {
	if c.detector == nil {
		return nil
	}
	detected := c.detector.Detect(ctx, imageData, mimeType)
	if len(detected.Products) == 0 {
		return nil
	}

	best := 0
	bestArea := 0.0
	for i, p := range detected.Products {
		area := (p.BoundingBox.XMax - p.BoundingBox.XMin) * (p.BoundingBox.YMax - p.BoundingBox.YMin)
		if area > bestArea {
			best, bestArea = i, area
		}
	}
	return &detected.Products[best]
}

func (c *Coordinator) sessionRecord(userID string, brief *GenerationBrief, result *GenerationResult) *model.SessionRecord {
	record := &model.SessionRecord{
		UserID:           userID,
		OutputImageURL:   result.OutputImageURL,
		Prompt:           result.Prompt,
		NegativePrompt:   result.NegativePrompt,
		Caption:          result.Caption,
		CreditsCost:      result.CreditsCost,
		CreditsRemaining: result.CreditsRemaining,
	}
	if brief.Product.ProductID != "" {
		record.ProductID = &brief.Product.ProductID
	}
	if brief.BrandID != "" {
		record.BrandID = &brief.BrandID
	}
	return record
}

// BriefFromJobInput - job_input_data 맵을 brief로 역직렬화 (워커 경로)
func BriefFromJobInput(input map[string]interface{}) (*GenerationBrief, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job input: %w", err)
	}
	var brief GenerationBrief
	if err := json.Unmarshal(data, &brief); err != nil {
		return nil, fmt.Errorf("failed to parse job input: %w", err)
	}
	return &brief, nil
}
