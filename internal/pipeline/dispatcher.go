package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"openpo/internal/config"
	"openpo/internal/mailer"
	"openpo/internal/model"
	"openpo/internal/parser"
)

// ErrAborted 发送失败且未开启 continue_on_error，后续供应商未处理
var ErrAborted = errors.New("dispatch aborted")

// Recorder 记录每个供应商的发送结果（运行台账）
type Recorder interface {
	RecordDispatch(runID string, r model.DispatchResult) error
}

// DispatchOptions 发送选项
type DispatchOptions struct {
	AttachmentDir    string
	AttachmentPrefix string
	AttachmentExt    string
	From             string
	CCMode           string
	SendTimeout      time.Duration
	ContinueOnError  bool
}

// Dispatcher 按计划逐个供应商发送邮件
type Dispatcher struct {
	transport mailer.Transport
	composer  *mailer.Composer
	opts      DispatchOptions

	recorder Recorder
	logger   *zap.Logger
	out      io.Writer
	progress func(ProgressEvent)
	now      func() time.Time
}

// Option Dispatcher 可选项
type Option func(*Dispatcher)

// WithRecorder 设置运行台账
func WithRecorder(r Recorder) Option { return func(d *Dispatcher) { d.recorder = r } }

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option { return func(d *Dispatcher) { d.logger = l } }

// WithOutput 设置发送确认行的输出（默认 stdout）
func WithOutput(w io.Writer) Option { return func(d *Dispatcher) { d.out = w } }

// WithProgress 设置进度回调
func WithProgress(fn func(ProgressEvent)) Option { return func(d *Dispatcher) { d.progress = fn } }

// NewDispatcher 创建 Dispatcher
func NewDispatcher(transport mailer.Transport, composer *mailer.Composer, opts DispatchOptions, options ...Option) *Dispatcher {
	d := &Dispatcher{
		transport: transport,
		composer:  composer,
		opts:      opts,
		logger:    zap.NewNop(),
		out:       os.Stdout,
		now:       time.Now,
	}
	for _, o := range options {
		o(d)
	}
	return d
}

// AttachmentPath 供应商附件路径
func (d *Dispatcher) AttachmentPath(supplier string) string {
	return filepath.Join(d.opts.AttachmentDir, parser.AttachmentName(d.opts.AttachmentPrefix, supplier, d.opts.AttachmentExt))
}

// Run 执行发送：整个运行只打开一个邮件会话，结束时释放
func (d *Dispatcher) Run(ctx context.Context, runID string, plan *model.Plan) (*model.RunReport, error) {
	report := &model.RunReport{
		RunID:     runID,
		StartedAt: d.now(),
	}
	defer func() { report.FinishedAt = d.now() }()

	total := len(plan.Rows)
	reportProgress(d.progress, ProgressEvent{Type: "start", Total: total, Message: d.transport.Name()})

	// 计划阶段已跳过的供应商同样进入台账
	for _, is := range plan.Skipped {
		d.record(report, model.DispatchResult{
			SupplierName: is.Supplier,
			Status:       model.StatusSkipped,
			Reason:       is.Reason,
			Detail:       is.Detail,
			At:           d.now(),
		})
	}

	if total == 0 {
		reportProgress(d.progress, ProgressEvent{Type: "done", Total: 0})
		return report, nil
	}

	session, err := d.transport.Open(ctx)
	if err != nil {
		return report, fmt.Errorf("open %s session: %w", d.transport.Name(), err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			d.logger.Warn("close mail session", zap.Error(err))
		}
	}()
	if located, ok := session.(mailer.Located); ok {
		report.Location = located.Location()
		d.logger.Info("writing emails", zap.String("transport", d.transport.Name()), zap.String("location", report.Location))
	}

	for i, row := range plan.Rows {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("%w: %w", ErrAborted, err)
		}

		result := d.dispatchOne(ctx, session, row)
		d.record(report, result)
		reportProgress(d.progress, ProgressEvent{
			Type:     string(result.Status),
			Supplier: row.SupplierName,
			Index:    i + 1,
			Total:    total,
			Message:  result.Detail,
		})

		if result.Status == model.StatusFailed && !d.opts.ContinueOnError {
			return report, fmt.Errorf("%w at %s: %s", ErrAborted, row.SupplierName, result.Detail)
		}
	}

	reportProgress(d.progress, ProgressEvent{Type: "done", Index: total, Total: total})
	return report, nil
}

func (d *Dispatcher) record(report *model.RunReport, result model.DispatchResult) {
	report.Results = append(report.Results, result)
	if d.recorder == nil {
		return
	}
	if err := d.recorder.RecordDispatch(report.RunID, result); err != nil {
		d.logger.Error("record dispatch", zap.String("supplier", result.SupplierName), zap.Error(err))
	}
}

// BuildEmail 组装单个供应商的邮件（不含附件），返回无效 CC 的说明
func (d *Dispatcher) BuildEmail(row model.DispatchRow) (*mailer.Email, []model.Issue, error) {
	cc, notes := ValidCC(row.SupplierName, row.CC)

	body, err := d.composer.Body(row.SupplierName)
	if err != nil {
		return nil, notes, err
	}

	email := &mailer.Email{
		From:    d.opts.From,
		Subject: d.composer.Subject(row.SupplierName),
		HTML:    body,
	}
	primary := []string{strings.TrimSpace(row.SendTo)}
	if d.opts.CCMode == config.CCModeCC {
		email.To = primary
		email.CC = cc
	} else {
		email.To = append(primary, cc...)
	}
	return email, notes, nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, session mailer.Session, row model.DispatchRow) model.DispatchResult {
	result := model.DispatchResult{
		SupplierName: row.SupplierName,
		Attachment:   d.AttachmentPath(row.SupplierName),
	}
	log := d.logger.With(zap.String("supplier", row.SupplierName))

	finish := func(status model.DispatchStatus, reason model.Reason, detail string) model.DispatchResult {
		result.Status = status
		result.Reason = reason
		result.Detail = detail
		result.At = d.now()
		return result
	}

	if !parser.IsValidEmail(row.SendTo) {
		log.Warn("invalid primary email, skipped", zap.String("send_to", row.SendTo))
		return finish(model.StatusSkipped, model.ReasonInvalidPrimary, row.SendTo)
	}

	email, notes, err := d.BuildEmail(row)
	result.Notes = notes
	for _, n := range notes {
		log.Warn("invalid cc email dropped", zap.String("detail", n.Detail))
	}
	if err != nil {
		return finish(model.StatusFailed, model.ReasonSendFailed, err.Error())
	}
	result.Subject = email.Subject
	result.Recipients = email.RecipientString()

	content, err := os.ReadFile(result.Attachment)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("attachment missing, skipped", zap.String("path", result.Attachment))
		return finish(model.StatusSkipped, model.ReasonAttachmentMissing, result.Attachment)
	}
	if err != nil {
		return finish(model.StatusFailed, model.ReasonSendFailed, fmt.Sprintf("read attachment: %v", err))
	}
	email.Attachments = []mailer.Attachment{{
		Filename:    filepath.Base(result.Attachment),
		ContentType: mailer.ContentTypeXLSX,
		Content:     content,
	}}

	sendCtx := ctx
	if d.opts.SendTimeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.opts.SendTimeout)
		defer cancel()
	}
	if err := session.Send(sendCtx, email); err != nil {
		log.Error("send failed", zap.Error(err))
		return finish(model.StatusFailed, model.ReasonSendFailed, err.Error())
	}

	fmt.Fprintln(d.out, row.SupplierName)
	log.Info("sent", zap.String("recipients", result.Recipients), zap.Int("open_orders", row.OpenOrders))
	return finish(model.StatusSent, "", "")
}
