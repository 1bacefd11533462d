package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tgparser/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// BotClient implements Client on top of the Telegram Bot API via telebot.
// One bot instance is kept per pool credential, mirroring the credential
// rotation the pool performs.
//
// The Bot API only exposes the administrator list of a chat, so ListMembers
// pages over the admins; the full-membership seam stays in the Client
// interface for backends that can do better.
type BotClient struct {
	bots   map[string]*tele.Bot // keyed by credential ID
	logger *zap.Logger
}

// NewBotClient builds one telebot instance per credential. A credential whose
// token is rejected at startup fails the whole construction: a pool seeded
// with dead credentials only produces confusing mid-job failures later.
func NewBotClient(creds []domain.Credential, logger *zap.Logger) (*BotClient, error) {
	bots := make(map[string]*tele.Bot, len(creds))
	for _, c := range creds {
		b, err := tele.NewBot(tele.Settings{Token: c.Secret})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bot for credential %s: %w", c.ID, err)
		}
		bots[c.ID] = b
		logger.Info("Bot client initialized", zap.String("credential_id", c.ID))
	}
	return &BotClient{bots: bots, logger: logger}, nil
}

// ResolveGroup resolves a username or chat id to group info
func (c *BotClient) ResolveGroup(ctx context.Context, cred domain.Credential, ref string) (*domain.GroupInfo, error) {
	b, err := c.bot(cred)
	if err != nil {
		return nil, err
	}

	chat, err := c.chatByRef(b, ref)
	if err != nil {
		return nil, err
	}

	info := &domain.GroupInfo{
		GroupID:     strconv.FormatInt(chat.ID, 10),
		Name:        chat.Title,
		Description: chat.Description,
	}

	if count, err := b.Len(chat); err != nil {
		c.logger.Warn("Could not fetch member count",
			zap.String("group_ref", ref),
			zap.Error(err),
		)
	} else {
		info.MemberCount = count
	}

	return info, nil
}

// ListMembers returns one page of the group's member listing
func (c *BotClient) ListMembers(ctx context.Context, cred domain.Credential, groupID string, offset, limit int) (*MemberPage, error) {
	b, err := c.bot(cred)
	if err != nil {
		return nil, err
	}

	chat, err := c.chatByRef(b, groupID)
	if err != nil {
		return nil, err
	}

	admins, err := b.AdminsOf(chat)
	if err != nil {
		return nil, err
	}

	total, err := b.Len(chat)
	if err != nil {
		total = len(admins)
	}

	page := &MemberPage{TotalCount: total}
	if offset >= len(admins) {
		return page, nil
	}

	end := offset + limit
	if end > len(admins) {
		end = len(admins)
	}
	for _, m := range admins[offset:end] {
		page.Members = append(page.Members, memberRecord(m))
	}
	page.HasMore = end < len(admins)

	return page, nil
}

func (c *BotClient) bot(cred domain.Credential) (*tele.Bot, error) {
	b, ok := c.bots[cred.ID]
	if !ok {
		return nil, fmt.Errorf("no bot client for credential %s", cred.ID)
	}
	return b, nil
}

// chatByRef looks up a chat by numeric id or username
func (c *BotClient) chatByRef(b *tele.Bot, ref string) (*tele.Chat, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return b.ChatByID(id)
	}
	return b.ChatByUsername("@" + strings.TrimPrefix(ref, "@"))
}

func memberRecord(m tele.ChatMember) domain.MemberRecord {
	if m.User == nil {
		return domain.MemberRecord{}
	}
	return domain.MemberRecord{
		UserID:     m.User.ID,
		Username:   m.User.Username,
		FirstName:  m.User.FirstName,
		LastName:   m.User.LastName,
		IsPremium:  m.User.IsPremium,
		CanMessage: m.User.Username != "",
		IsAdmin:    m.Role == tele.Administrator || m.Role == tele.Creator,
		AdminTitle: m.Title,
	}
}
