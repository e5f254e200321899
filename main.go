package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"vitrine-studio-server/modules/analyze"
	"vitrine-studio-server/modules/brand"
	"vitrine-studio-server/modules/caption"
	"vitrine-studio-server/modules/common/config"
	"vitrine-studio-server/modules/common/credit"
	"vitrine-studio-server/modules/common/database"
	"vitrine-studio-server/modules/common/gemini"
	commonredis "vitrine-studio-server/modules/common/redis"
	"vitrine-studio-server/modules/common/storage"
	"vitrine-studio-server/modules/composite"
	"vitrine-studio-server/modules/detect"
	"vitrine-studio-server/modules/generation"
	"vitrine-studio-server/modules/progress"
	"vitrine-studio-server/modules/segment"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "vitrine-studio",
	})
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// 공용 클라이언트
	rdb := commonredis.Connect(cfg)
	if rdb == nil {
		log.Fatal("❌ Failed to connect to Redis")
	}

	db := database.NewClient(cfg)
	if db == nil {
		log.Fatal("❌ Failed to create database client")
	}

	credits := credit.NewClient(cfg)
	if credits == nil {
		log.Fatal("❌ Failed to create credit client")
	}

	store := storage.NewClient(cfg)
	geminiClient := gemini.NewClient(cfg)
	segmentClient := segment.NewClient(cfg)

	// 파이프라인 서비스
	analyzer := analyze.NewService(geminiClient, cfg.MarketLanguage)
	detector := detect.NewService(geminiClient, segmentClient, cfg.MarketLanguage,
		detect.PacingPolicy{Delay: cfg.SegmentPacing, MaxAttempts: 2})
	compositor := composite.NewCompositor(store, segmentClient)
	brands := brand.NewService(db)
	captions := caption.NewService(geminiClient, cfg.MarketLanguage)
	hub := progress.NewHub()

	coordinator := generation.NewCoordinator(generation.CoordinatorDeps{
		Credits:    credits,
		Analyzer:   analyzer,
		Detector:   detector,
		Compositor: compositor,
		Brands:     brands,
		Captions:   captions,
		Sessions:   db,
		Cache:      db,
		Source:     store,
		Invoker:    generation.NewInvoker(geminiClient, store),
		CreditCost: cfg.CreditPerImage,
	})

	// Redis Queue Worker 시작 (백그라운드)
	worker := generation.NewWorker(rdb, db, coordinator, hub)
	go worker.Start(context.Background())

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")

	analyze.NewHandler(analyzer, db).RegisterRoutes(r)
	detect.NewHandler(detector).RegisterRoutes(r)
	generation.NewHandler(coordinator, db, rdb).RegisterRoutes(r)
	hub.RegisterRoutes(r)

	log.Printf("🚀 Vitrine Studio Server starting on port %s", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("📡 Progress endpoint: ws://localhost:%s/ws/progress/{job_id}", cfg.Port)

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
