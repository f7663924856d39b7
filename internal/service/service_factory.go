package service

import (
	"go.uber.org/zap"
)

// ServiceFactory creates and manages service instances
type ServiceFactory struct {
	limiter     RateLimiter
	notifier    Notifier
	policy      Policy
	logger      *zap.Logger
	leadService *LeadService
}

func NewServiceFactory(limiter RateLimiter, notifier Notifier, policy Policy, logger *zap.Logger) *ServiceFactory {
	return &ServiceFactory{
		limiter:  limiter,
		notifier: notifier,
		policy:   policy,
		logger:   logger,
	}
}

// LeadService returns the lead service instance (singleton)
func (f *ServiceFactory) LeadService() *LeadService {
	if f.leadService == nil {
		f.leadService = NewLeadService(f.limiter, f.notifier, f.policy, f.logger)
	}
	return f.leadService
}
