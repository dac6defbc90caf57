// Package lead turns a landing page form submission into a conversion event,
// a CRM lead and a chat notification.
package lead

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"lead-gateway/internal/apperr"
	"lead-gateway/internal/config"
	"lead-gateway/internal/model"
	"lead-gateway/internal/telemetry"
)

// SuccessMessage is shown to the visitor after a submission.
const SuccessMessage = "Заявка успешно отправлена! Мы свяжемся с вами в ближайшее время."

// ConversionSender forwards a conversion event to the ad platform.
type ConversionSender interface {
	Forward(ctx context.Context, req model.ConversionRequest, meta model.RequestMeta) (model.ConversionResult, error)
}

// LeadCreator records the submission in the CRM and returns the lead id.
type LeadCreator interface {
	CreateLead(ctx context.Context, sub model.LeadSubmission) (int64, error)
}

// Notifier announces the submission in a chat.
type Notifier interface {
	NotifyLead(ctx context.Context, sub model.LeadSubmission) error
}

// Deps wires the orchestrator. A nil CRM or Notifier disables that stage.
type Deps struct {
	Conversions ConversionSender
	CRM         LeadCreator
	Notifier    Notifier
	Offers      config.OfferCatalog
	Log         *slog.Logger
	Metrics     *telemetry.Collectors
}

type Orchestrator struct {
	conversions ConversionSender
	crm         LeadCreator
	notifier    Notifier
	offers      config.OfferCatalog
	log         *slog.Logger
	metrics     *telemetry.Collectors
	now         func() time.Time
	suffix      func() string
}

func New(d Deps) *Orchestrator {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		conversions: d.Conversions,
		crm:         d.CRM,
		notifier:    d.Notifier,
		offers:      d.Offers,
		log:         log,
		metrics:     d.Metrics,
		now:         time.Now,
		suffix:      RandomSuffix,
	}
}

// Outcome is the result of a validated submission.
type Outcome struct {
	EventID string
	LeadID  *int64
	Report  Report
}

// Response renders the outcome for the HTTP client.
func (o Outcome) Response() model.LeadResponse {
	return model.LeadResponse{
		Success:   true,
		LeadID:    o.LeadID,
		FBEventID: o.EventID,
		Message:   SuccessMessage,
	}
}

// Submit validates sub and runs the conversion, CRM and notification stages in
// order. Only validation fails the call; stage failures land in the report.
// Stages keep running when the caller goes away; the HTTP client timeout bounds them.
func (o *Orchestrator) Submit(ctx context.Context, sub model.LeadSubmission, meta model.RequestMeta) (Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	if strings.TrimSpace(sub.Name) == "" || strings.TrimSpace(sub.Phone) == "" {
		return Outcome{}, apperr.Validation("Missing required fields: name, phone")
	}

	out := Outcome{EventID: sub.EventID}
	if out.EventID == "" {
		out.EventID = EventID(sub.UserID, o.now(), o.suffix())
	}

	out.Report = append(out.Report, o.sendConversion(ctx, sub, out.EventID, meta))

	crmResult, leadID := o.createCRMLead(ctx, sub)
	out.Report = append(out.Report, crmResult)
	if crmResult.Status == StatusOK {
		out.LeadID = &leadID
	}

	out.Report = append(out.Report, o.notify(ctx, sub))

	for _, res := range out.Report {
		o.metrics.LeadStage(string(res.Stage), string(res.Status))
	}
	o.log.Info("lead processed",
		slog.String("event_id", out.EventID),
		slog.Bool("has_email", sub.Email != ""),
		slog.Bool("has_whatsapp", sub.WhatsApp != ""),
		slog.Any("stages", out.Report),
	)
	return out, nil
}

// ConversionRequest derives the Lead conversion event for sub. Email and phone
// are passed raw; the forwarder hashes them.
func (o *Orchestrator) ConversionRequest(sub model.LeadSubmission, eventID string) model.ConversionRequest {
	data := map[string]any{
		"content_name":     o.offers.ContentName,
		"content_category": o.offers.ContentCategory,
		"value":            o.offers.Value(sub.PackageType),
		"currency":         o.offers.Currency,
	}
	if sub.PackageType != "" {
		data["content_type"] = sub.PackageType
	}
	if sub.PageURL != "" {
		data["page_url"] = sub.PageURL
	}
	if sub.SiteLanguage != "" {
		data["site_language"] = sub.SiteLanguage
	}
	utm := make(map[string]any, len(sub.UTM))
	for k, v := range sub.UTM {
		utm[k] = v
	}
	return model.ConversionRequest{
		EventName: "Lead",
		EventID:   eventID,
		EventData: data,
		UserData: model.UserData{
			Email:   sub.Email,
			Phone:   sub.Phone,
			Country: strings.ToUpper(sub.SiteLanguage),
			FBP:     sub.FBP,
			FBC:     sub.FBC,
		},
		UTM: utm,
	}
}

func (o *Orchestrator) sendConversion(ctx context.Context, sub model.LeadSubmission, eventID string, meta model.RequestMeta) StageResult {
	if o.conversions == nil {
		return StageResult{Stage: StageConversion, Status: StatusSkipped}
	}
	res, err := o.conversions.Forward(ctx, o.ConversionRequest(sub, eventID), meta)
	if err != nil {
		o.log.Error("conversion stage failed", slog.String("event_id", eventID), slog.String("err", err.Error()))
		return StageResult{Stage: StageConversion, Status: StatusFailed, Err: err}
	}
	o.log.Debug("conversion stage done", slog.String("event_id", eventID), slog.String("fbtrace_id", res.FBTraceID))
	return StageResult{Stage: StageConversion, Status: StatusOK}
}

func (o *Orchestrator) createCRMLead(ctx context.Context, sub model.LeadSubmission) (StageResult, int64) {
	if o.crm == nil {
		return StageResult{Stage: StageCRM, Status: StatusSkipped}, 0
	}
	id, err := o.crm.CreateLead(ctx, sub)
	if err != nil {
		o.log.Error("crm stage failed", slog.String("err", err.Error()))
		return StageResult{Stage: StageCRM, Status: StatusFailed, Err: err}, 0
	}
	o.log.Info("crm lead created", slog.Int64("lead_id", id))
	return StageResult{Stage: StageCRM, Status: StatusOK}, id
}

func (o *Orchestrator) notify(ctx context.Context, sub model.LeadSubmission) StageResult {
	if o.notifier == nil {
		return StageResult{Stage: StageNotify, Status: StatusSkipped}
	}
	if err := o.notifier.NotifyLead(ctx, sub); err != nil {
		o.log.Error("notify stage failed", slog.String("err", err.Error()))
		return StageResult{Stage: StageNotify, Status: StatusFailed, Err: err}
	}
	return StageResult{Stage: StageNotify, Status: StatusOK}
}
