package runner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"openpo/internal/config"
	"openpo/internal/mailer"
	"openpo/internal/mailer/outbox"
	"openpo/internal/mailer/resend"
	"openpo/internal/mailer/smtp"
	"openpo/internal/model"
	"openpo/internal/pipeline"
	"openpo/internal/service/excel"
	"openpo/internal/store"
)

// Coordinator 串联加载、计划、发送与台账
type Coordinator struct {
	cfg     *config.AppConfig
	dataDir string
	store   *store.Store // 可为 nil：不记录台账
	logger  *zap.Logger
	now     func() time.Time
}

// NewCoordinator 创建协调器
func NewCoordinator(cfg *config.AppConfig, dataDir string, st *store.Store, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		cfg:     cfg,
		dataDir: dataDir,
		store:   st,
		logger:  logger,
		now:     time.Now,
	}
}

// Inputs 两个输入表格的加载结果
type Inputs struct {
	Orders    *model.OrderTable
	Directory *model.Directory
}

// Issues 行级问题汇总（订单在前）
func (in *Inputs) Issues() []model.Issue {
	out := make([]model.Issue, 0, len(in.Orders.Issues)+len(in.Directory.Issues))
	out = append(out, in.Orders.Issues...)
	return append(out, in.Directory.Issues...)
}

// LoadInputs 读取订单报表与供应商通讯录
func (c *Coordinator) LoadInputs() (*Inputs, error) {
	orders, err := excel.LoadOrders(c.cfg.Input.OrdersPath, c.cfg.Input.OrdersSheet)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	dir, err := excel.LoadDirectory(c.cfg.Input.DirectoryPath, c.cfg.Input.DirectorySheet)
	if err != nil {
		return nil, fmt.Errorf("load directory: %w", err)
	}

	in := &Inputs{Orders: orders, Directory: dir}
	for _, is := range in.Issues() {
		c.logger.Warn("input row issue",
			zap.String("source", is.Source),
			zap.Int("row", is.Row),
			zap.String("reason", string(is.Reason)),
			zap.String("detail", is.Detail))
	}
	c.logger.Info("inputs loaded",
		zap.Int("orders", len(orders.Orders)),
		zap.Int("directory_entries", len(dir.Entries)))
	return in, nil
}

// Plan 加载输入并生成发送计划
func (c *Coordinator) Plan(only []string) (*Inputs, *model.Plan, error) {
	in, err := c.LoadInputs()
	if err != nil {
		return nil, nil, err
	}
	plan := pipeline.BuildPlan(in.Orders, in.Directory, pipeline.PlanOptions{Only: only})
	c.logger.Info("plan built",
		zap.Int("open_orders", plan.OpenOrders),
		zap.Int("suppliers", plan.Suppliers),
		zap.Int("dispatch", len(plan.Rows)),
		zap.Int("skipped", len(plan.Skipped)))
	return in, plan, nil
}

// Preview 生成发送计划，并返回输入表格中的行级问题
func (c *Coordinator) Preview(only []string) (*model.Plan, []model.Issue, error) {
	in, plan, err := c.Plan(only)
	if err != nil {
		return nil, nil, err
	}
	return plan, in.Issues(), nil
}

// Transport 按配置构造邮件通道；dryRun 时总是写入 outbox
func (c *Coordinator) Transport(dryRun bool) (mailer.Transport, error) {
	name := c.cfg.Mail.Transport
	if dryRun {
		name = config.TransportOutbox
	}

	switch name {
	case config.TransportOutbox:
		return outbox.New(config.OutboxPath(c.cfg, c.dataDir), c.cfg.Mail.From), nil
	case config.TransportSMTP:
		return smtp.New(smtp.Config{
			Host:     c.cfg.SMTP.Host,
			Port:     c.cfg.SMTP.Port,
			Username: c.cfg.SMTP.Username,
			Password: c.cfg.SMTP.Password,
			TLS:      c.cfg.SMTP.TLS,
			From:     c.cfg.Mail.From,
			Timeout:  c.cfg.SendTimeout(),
		}), nil
	case config.TransportResend:
		return resend.New(resend.Config{
			APIKey:      c.cfg.Resend.APIKey,
			SenderEmail: c.cfg.Mail.From,
			SenderName:  c.cfg.Resend.FromName,
		}), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", name)
	}
}

// SendOptions 发送选项
type SendOptions struct {
	DryRun   bool
	Only     []string
	Out      io.Writer // 发送成功的供应商名称逐行输出，默认 stdout
	Progress func(pipeline.ProgressEvent)
}

// Send 执行一次完整运行：加载 → 计划 → 发送 → 台账
func (c *Coordinator) Send(ctx context.Context, opts SendOptions) (*model.RunReport, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	in, plan, err := c.Plan(opts.Only)
	if err != nil {
		return nil, err
	}

	transport, err := c.Transport(opts.DryRun)
	if err != nil {
		return nil, err
	}
	composer, err := mailer.NewComposer(mailer.ComposerConfig{
		CompanyName:   c.cfg.Mail.CompanyName,
		TeamName:      c.cfg.Mail.TeamName,
		SubjectPrefix: c.cfg.Mail.SubjectPrefix,
		TemplatePath:  c.cfg.Mail.TemplatePath,
	})
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := c.logger.With(zap.String("run_id", runID), zap.String("transport", transport.Name()))

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	dispatchOpts := []pipeline.Option{
		pipeline.WithLogger(log),
		pipeline.WithOutput(out),
		pipeline.WithProgress(opts.Progress),
	}

	if c.store != nil {
		err := c.store.CreateRun(store.Run{
			ID:            runID,
			StartedAt:     c.now(),
			OrdersFile:    c.cfg.Input.OrdersPath,
			DirectoryFile: c.cfg.Input.DirectoryPath,
			Transport:     transport.Name(),
			DryRun:        opts.DryRun,
		})
		if err != nil {
			return nil, err
		}
		dispatchOpts = append(dispatchOpts, pipeline.WithRecorder(c.store))
		c.recordInputs(runID, in)
	}

	d := pipeline.NewDispatcher(transport, composer, pipeline.DispatchOptions{
		AttachmentDir:    c.cfg.Attachments.Dir,
		AttachmentPrefix: c.cfg.Attachments.Prefix,
		AttachmentExt:    c.cfg.Attachments.Ext,
		From:             c.cfg.Mail.From,
		CCMode:           c.cfg.Mail.CCMode,
		SendTimeout:      c.cfg.SendTimeout(),
		ContinueOnError:  c.cfg.Mail.ContinueOnError,
	}, dispatchOpts...)

	log.Info("run started", zap.Int("dispatch", len(plan.Rows)), zap.Bool("dry_run", opts.DryRun))
	report, runErr := d.Run(ctx, runID, plan)

	sent := report.Count(model.StatusSent)
	skipped := report.Count(model.StatusSkipped)
	failed := report.Count(model.StatusFailed)
	if c.store != nil {
		status, msg := store.RunCompleted, ""
		if runErr != nil {
			status, msg = store.RunAborted, runErr.Error()
		}
		if err := c.store.FinishRun(runID, status, sent, skipped, failed, msg); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	log.Info("run finished",
		zap.Int("sent", sent),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Error(runErr))
	return report, runErr
}

// recordInputs 记录输入文件的大小与摘要；失败只记日志
func (c *Coordinator) recordInputs(runID string, in *Inputs) {
	inputs := []store.RunInput{
		{Kind: store.InputOrders, FilePath: c.cfg.Input.OrdersPath, RowCount: len(in.Orders.Orders), IssueCount: len(in.Orders.Issues)},
		{Kind: store.InputDirectory, FilePath: c.cfg.Input.DirectoryPath, RowCount: len(in.Directory.Entries), IssueCount: len(in.Directory.Issues)},
	}
	for _, ri := range inputs {
		ri.RunID = runID
		size, hash, err := fileDigest(ri.FilePath)
		if err != nil {
			c.logger.Warn("digest input", zap.String("path", ri.FilePath), zap.Error(err))
		}
		ri.FileSize, ri.FileHash = size, hash
		if _, err := c.store.RecordInput(ri); err != nil {
			c.logger.Warn("record input", zap.String("path", ri.FilePath), zap.Error(err))
		}
	}
}

// fileDigest 返回文件大小与 sha256
func fileDigest(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}

// GenerateReports 为有未结订单的供应商生成附件报表，返回写出的文件
func (c *Coordinator) GenerateReports(only []string) ([]string, error) {
	orders, err := excel.LoadOrders(c.cfg.Input.OrdersPath, c.cfg.Input.OrdersSheet)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}

	exporter := excel.NewReportExporter(excel.ReportOptions{
		Prefix:          c.cfg.Attachments.Prefix,
		Ext:             c.cfg.Attachments.Ext,
		CriticalAgeDays: c.cfg.Attachments.CriticalAgeDays,
		HighAgeDays:     c.cfg.Attachments.HighAgeDays,
		Now:             c.now(),
	})
	suppliers := pipeline.SelectSuppliers(orders.Orders, only)
	written, err := exporter.WriteAll(c.cfg.Attachments.Dir, orders, suppliers)
	if err != nil {
		return written, err
	}
	c.logger.Info("reports written", zap.Int("files", len(written)), zap.String("dir", c.cfg.Attachments.Dir))
	return written, nil
}
