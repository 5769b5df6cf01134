package service

import (
	"context"
	"fmt"

	"moneyflow/config"
	"moneyflow/models"

	"github.com/bwmarrin/discordgo"
)

// webhookExecutor discordgo.Session 中用到的部分
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier 通过 Discord webhook 推送目标完成消息
type DiscordNotifier struct {
	session webhookExecutor
	cfg     *config.DiscordConfig
}

// NewDiscordNotifier 创建 Discord 通知；webhook 不需要 bot token
func NewDiscordNotifier(cfg *config.DiscordConfig) (*DiscordNotifier, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("创建 Discord 会话失败: %w", err)
	}
	return &DiscordNotifier{session: session, cfg: cfg}, nil
}

func (n *DiscordNotifier) GoalCompleted(ctx context.Context, goal *models.FinancialGoal) error {
	if !n.cfg.Enabled {
		return nil
	}
	params := &discordgo.WebhookParams{
		Username: "MoneyFlow",
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "🎉 目标已达成",
			Description: goal.Name,
			Color:       0x10b981,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "目标金额", Value: goal.TargetAmount.StringFixed(2), Inline: true},
				{Name: "当前金额", Value: goal.CurrentAmount.StringFixed(2), Inline: true},
			},
		}},
	}
	if _, err := n.session.WebhookExecute(n.cfg.WebhookID, n.cfg.WebhookToken, false, params, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("发送 Discord 通知失败: %w", err)
	}
	return nil
}
