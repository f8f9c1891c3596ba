package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Yat-Muk/prism-desk/internal/application"
	domainSingbox "github.com/Yat-Muk/prism-desk/internal/domain/singbox"
	"github.com/Yat-Muk/prism-desk/internal/infra/blob"
	infraCatalog "github.com/Yat-Muk/prism-desk/internal/infra/catalog"
	"github.com/Yat-Muk/prism-desk/internal/infra/kernel"
	infraProfile "github.com/Yat-Muk/prism-desk/internal/infra/profile"
	"github.com/Yat-Muk/prism-desk/internal/pkg/appctx"
	"github.com/Yat-Muk/prism-desk/internal/pkg/crypto"
)

type AppDependencies struct {
	Log            *zap.Logger
	Paths          *appctx.Paths
	ProfileService *application.ProfileService
	KernelService  *application.KernelService
	RulesetService *application.RulesetService
	Checker        *kernel.Checker
}

func initializeDependencies(ctx context.Context, log *zap.Logger, paths *appctx.Paths, settings *appctx.Settings) (*AppDependencies, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	// ==========================================
	// 1. 基礎設施層
	// ==========================================
	var store blob.Store = blob.NewFileStore(paths.BaseDir, log)
	if settings.Cache.TTL > 0 {
		store = blob.NewCachedStore(store, settings.Cache.TTL)
	}

	var encryptor *crypto.Encryptor
	if settings.Secrets.Encrypt {
		keyPath := settings.Secrets.MasterKeyPath
		if keyPath == "" {
			keyPath = paths.MasterKeyFile
		}
		enc, err := crypto.NewEncryptor(keyPath)
		if err != nil {
			return nil, fmt.Errorf("初始化加密器失敗: %w", err)
		}
		encryptor = enc
	}

	profileRepo := infraProfile.NewFileRepository(store, encryptor, log)
	catalogLoader := infraCatalog.NewFileLoader(store, log)

	binary := settings.Kernel.Binary
	if strings.ContainsAny(binary, `/\`) {
		binary = paths.Abs(binary)
	}
	checker := kernel.NewChecker(kernel.NewExecutor(log, binary), binary, settings.Kernel.CheckTimeout)

	// ==========================================
	// 2. 應用服務層
	// ==========================================
	profileSvc := application.NewProfileService(profileRepo, settings.Store.Debounce, log)
	if err := profileSvc.Setup(ctx); err != nil {
		return nil, err
	}

	generator := domainSingbox.NewGenerator(log)
	kernelSvc := application.NewKernelService(generator, profileSvc, catalogLoader, store, log)
	rulesetSvc := application.NewRulesetService(store, log)

	return &AppDependencies{
		Log:            log,
		Paths:          paths,
		ProfileService: profileSvc,
		KernelService:  kernelSvc,
		RulesetService: rulesetSvc,
		Checker:        checker,
	}, nil
}
