package handlers

import (
	"database/sql"
	"sync"

	intconfig "leadengine/internal/config"
	"leadengine/internal/guard"
	"leadengine/internal/repositories"
	"leadengine/internal/services"

	"github.com/gin-gonic/gin"
)

// Deps are the process-wide collaborators shared by every request.
type Deps struct {
	DB       *sql.DB
	Limiter  services.LoginLimiter
	Security guard.SecurityLogger
	Env      intconfig.Env
}

var (
	depsMu sync.RWMutex
	deps   Deps
)

// Configure installs the shared collaborators; call it before serving.
func Configure(d Deps) {
	depsMu.Lock()
	defer depsMu.Unlock()
	deps = d
}

func current() Deps {
	depsMu.RLock()
	defer depsMu.RUnlock()
	d := deps
	if d.DB == nil {
		d.DB = intconfig.DB
	}
	return d
}

func leadService(c *gin.Context) services.LeadService {
	d := current()
	return services.LeadService{
		LeadRepo:    repositories.LeadRepository{DB: d.DB},
		WebhookRepo: repositories.WebhookRepository{DB: d.DB},
		Limiter:     d.Limiter,
		Security:    d.Security,
		DB:          d.DB,
		RequestID:   requestID(c),
	}
}

func valuationService(c *gin.Context) services.ValuationService {
	d := current()
	return services.ValuationService{
		RuleRepo:        repositories.PricingRuleRepository{DB: d.DB},
		ValuationRepo:   repositories.ValuationRepository{DB: d.DB},
		WebhookRepo:     repositories.WebhookRepository{DB: d.DB},
		Leads:           leadService(c),
		Limiter:         d.Limiter,
		Security:        d.Security,
		DefaultCurrency: d.Env.DefaultCurrency,
		DB:              d.DB,
		RequestID:       requestID(c),
	}
}

func propertyService(c *gin.Context) services.PropertyService {
	d := current()
	return services.PropertyService{
		Repo:            repositories.PropertyRepository{DB: d.DB},
		WebhookRepo:     repositories.WebhookRepository{DB: d.DB},
		DefaultCurrency: d.Env.DefaultCurrency,
		DB:              d.DB,
		RequestID:       requestID(c),
	}
}

func pricingRuleService(c *gin.Context) services.PricingRuleService {
	d := current()
	return services.PricingRuleService{
		Repo:      repositories.PricingRuleRepository{DB: d.DB},
		RequestID: requestID(c),
	}
}

func authService(c *gin.Context) services.AuthService {
	d := current()
	return services.AuthService{
		PasswordHash: d.Env.AdminPasswordHash,
		Secret:       []byte(d.Env.JWTSecret),
		Limiter:      d.Limiter,
		Security:     d.Security,
		RequestID:    requestID(c),
	}
}
