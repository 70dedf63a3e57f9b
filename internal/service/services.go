package service

import (
	"go.uber.org/zap"

	"sitecms/internal/analytics"
	"sitecms/internal/auth"
	"sitecms/internal/storage"
)

// Options are the knobs NewServices needs beyond the stores.
type Options struct {
	PublicBaseURL      string
	EditorHistoryLimit int
	Signer             *auth.Signer
	Policy             auth.Policy
}

// Services bundles every service sharing one database.
type Services struct {
	Buttons    *ButtonService
	Sections   *SectionService
	Pages      *PageService
	SiteConfig *SiteConfigService
	Editor     *EditorService
	Auth       *AuthService
	Analytics  *AnalyticsService
	Files      *FileService

	// Pages and Content are kept for seeding.
	PageStore    *storage.PageStore
	ContentStore *storage.ContentStore
}

// NewServices builds the service graph over db and blobs.
func NewServices(db *storage.DB, blobs *storage.BlobStore, opts Options, logger *zap.Logger, emitter EventEmitter, sinks ...analytics.Sink) *Services {
	if logger == nil {
		logger = zap.NewNop()
	}
	if emitter == nil {
		emitter = LogEmitter{Logger: logger}
	}
	pageStore := storage.NewPageStore(db)
	contentStore := storage.NewContentStore(db)
	sections := storage.NewSectionStore(db)
	authStore := storage.NewAuthStore(db)

	pages := NewPageService(pageStore, contentStore, emitter)
	stats := NewAnalyticsService(storage.NewAnalyticsStore(db), logger.Named("analytics"), emitter, sinks...)

	return &Services{
		Buttons:      NewButtonService(storage.NewButtonStore(db), emitter),
		Sections:     NewSectionService(sections, sections, emitter),
		Pages:        pages,
		SiteConfig:   NewSiteConfigService(storage.NewSiteConfigStore(db), emitter),
		Editor:       NewEditorService(pages, storage.NewUndoStore(db, opts.EditorHistoryLimit), stats, opts.EditorHistoryLimit, logger.Named("editor")),
		Auth:         NewAuthService(authStore, authStore, opts.Signer, opts.Policy, logger.Named("auth"), emitter),
		Analytics:    stats,
		Files:        NewFileService(blobs, opts.PublicBaseURL, emitter),
		PageStore:    pageStore,
		ContentStore: contentStore,
	}
}
