package service

import (
	"context"
	"fmt"
	"html"

	"moneyflow/config"
	"moneyflow/models"

	"gopkg.in/gomail.v2"
)

// EmailService 邮件服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendGoalCompletedEmail 发送目标达成邮件
func (s *EmailService) SendGoalCompletedEmail(toEmail, orgName string, goal *models.FinancialGoal) error {
	if !s.cfg.Enabled {
		return fmt.Errorf("邮件服务未启用，请配置 MONEYFLOW_NOTIFY_EMAIL_ENABLED=true")
	}

	subject := fmt.Sprintf("【MoneyFlow】目标「%s」已达成", goal.Name)
	body := s.generateGoalCompletedEmailBody(orgName, goal)

	return s.sendEmail(toEmail, subject, body)
}

// generateGoalCompletedEmailBody 生成目标达成邮件内容
func (s *EmailService) generateGoalCompletedEmailBody(orgName string, goal *models.FinancialGoal) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: 'Microsoft YaHei', Arial, sans-serif; background: #f5f5f5; margin: 0; padding: 20px; }
        .container { max-width: 600px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 4px 20px rgba(0,0,0,0.1); }
        .header { background: linear-gradient(135deg, #10b981, #059669); color: white; padding: 30px; text-align: center; }
        .header h1 { margin: 0; font-size: 24px; }
        .content { padding: 40px 30px; }
        .content p { color: #333; line-height: 1.8; margin: 0 0 20px; }
        .amount-box { background: linear-gradient(135deg, #f0fdf4, #dcfce7); border: 2px dashed #10b981; border-radius: 12px; padding: 30px; text-align: center; margin: 30px 0; }
        .amount { font-size: 32px; font-weight: bold; color: #059669; font-family: 'Courier New', monospace; }
        .footer { background: #f8f9fa; padding: 20px 30px; text-align: center; color: #6c757d; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>💰 MoneyFlow</h1>
        </div>
        <div class="content">
            <p><strong>%s</strong> 的成员们，您好！</p>
            <p>财务目标「<strong>%s</strong>」已经达成：</p>
            <div class="amount-box">
                <span class="amount">%s / %s</span>
            </div>
            <p>继续保持，向下一个目标出发吧！</p>
        </div>
        <div class="footer">
            <p>此邮件由系统自动发送，请勿回复</p>
            <p>© MoneyFlow - 您的家庭财务管理助手</p>
        </div>
    </div>
</body>
</html>
`, html.EscapeString(orgName), html.EscapeString(goal.Name), goal.CurrentAmount.StringFixed(2), goal.TargetAmount.StringFixed(2))
}

// sendEmail 发送邮件
func (s *EmailService) sendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.cfg.Username, s.cfg.From))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("发送邮件失败: %w", err)
	}

	return nil
}

// EmailNotifier 目标完成时给组织通知邮箱发邮件
type EmailNotifier struct {
	email *EmailService
	orgs  OrganizationFinder
}

// NewEmailNotifier 创建邮件通知
func NewEmailNotifier(email *EmailService, orgs OrganizationFinder) *EmailNotifier {
	return &EmailNotifier{email: email, orgs: orgs}
}

func (n *EmailNotifier) GoalCompleted(ctx context.Context, goal *models.FinancialGoal) error {
	if !n.email.cfg.Enabled {
		return nil
	}
	org, err := n.orgs.FindOrganization(ctx, goal.OrganizationID)
	if err != nil {
		return err
	}
	if org.NotifyEmail == "" {
		return nil
	}
	return n.email.SendGoalCompletedEmail(org.NotifyEmail, org.Name, goal)
}
