package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bombersbar/backend/config"
)

// ErrEsiRateLimited is returned when ESI answers 420 (error limited) or 429.
// The mail dispatcher treats it as a retryable failure with backoff.
var ErrEsiRateLimited = errors.New("esi rate limited")

type EsiMailHeader struct {
	MailId    int       `json:"mail_id"`
	From      int       `json:"from"`
	Subject   string    `json:"subject"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"is_read"`
}

type EsiMail struct {
	From      int       `json:"from"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

type EsiKillmailVictim struct {
	CharacterId int `json:"character_id"`
	ShipTypeId  int `json:"ship_type_id"`
}

type EsiKillmail struct {
	KillmailId   int               `json:"killmail_id"`
	KillmailTime time.Time         `json:"killmail_time"`
	Victim       EsiKillmailVictim `json:"victim"`
}

type esiMailRecipient struct {
	RecipientId   int    `json:"recipient_id"`
	RecipientType string `json:"recipient_type"`
}

type esiNewMail struct {
	ApprovedCost int                `json:"approved_cost"`
	Body         string             `json:"body"`
	Recipients   []esiMailRecipient `json:"recipients"`
	Subject      string             `json:"subject"`
}

func esiGet(ctx context.Context, path string, dest interface{}) error {
	client, err := config.GetEsiClient()
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodGet, client.BaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 420 {
		return ErrEsiRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("esi GET %s returned %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// GetEsiMailHeaders lists the most recent mail headers of the SRP mailbox
// character, newest first. lastMailId > 0 pages backwards from that id.
func GetEsiMailHeaders(ctx context.Context, lastMailId int) ([]EsiMailHeader, error) {
	client, err := config.GetEsiClient()
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/characters/%d/mail/", client.CharacterId)
	if lastMailId > 0 {
		path = fmt.Sprintf("%s?last_mail_id=%d", path, lastMailId)
	}
	var headers []EsiMailHeader
	if err := esiGet(ctx, path, &headers); err != nil {
		return nil, err
	}
	return headers, nil
}

func GetEsiMailBody(ctx context.Context, mailId int) (*EsiMail, error) {
	client, err := config.GetEsiClient()
	if err != nil {
		return nil, err
	}
	var mail EsiMail
	path := fmt.Sprintf("/characters/%d/mail/%d/", client.CharacterId, mailId)
	if err := esiGet(ctx, path, &mail); err != nil {
		return nil, err
	}
	return &mail, nil
}

func GetEsiKillmail(ctx context.Context, killmailId int, hash string) (*EsiKillmail, error) {
	var km EsiKillmail
	path := fmt.Sprintf("/killmails/%d/%s/", killmailId, hash)
	if err := esiGet(ctx, path, &km); err != nil {
		return nil, err
	}
	return &km, nil
}

// GetEsiCharacterName resolves a character id, caching in Redis
// (ids are immutable upstream; only renames would stale this, and those
// are rare enough to live with the 24h TTL).
func GetEsiCharacterName(ctx context.Context, characterId int) (string, error) {
	redisKey := fmt.Sprintf("EsiCharacterName:%d", characterId)
	if name, exists, err := config.GetRedisValue(redisKey); err == nil && exists {
		return name, nil
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := esiGet(ctx, fmt.Sprintf("/characters/%d/", characterId), &payload); err != nil {
		return "", err
	}
	_ = config.SetRedisValue(redisKey, payload.Name, 24*time.Hour)
	return payload.Name, nil
}

// GetEsiTypeName resolves an inventory type id (ship hull, module), cached.
func GetEsiTypeName(ctx context.Context, typeId int) (string, error) {
	redisKey := fmt.Sprintf("EsiTypeName:%d", typeId)
	if name, exists, err := config.GetRedisValue(redisKey); err == nil && exists {
		return name, nil
	}

	var payload struct {
		Name string `json:"name"`
	}
	if err := esiGet(ctx, fmt.Sprintf("/universe/types/%d/", typeId), &payload); err != nil {
		return "", err
	}
	_ = config.SetRedisValue(redisKey, payload.Name, 0)
	return payload.Name, nil
}

// SendEsiMail sends an evemail from the SRP mailbox character and returns
// the created mail id.
func SendEsiMail(ctx context.Context, recipientCharacterId int, subject string, body string) (int, error) {
	client, err := config.GetEsiClient()
	if err != nil {
		return 0, err
	}

	mail := esiNewMail{
		Body:    body,
		Subject: subject,
		Recipients: []esiMailRecipient{
			{RecipientId: recipientCharacterId, RecipientType: "character"},
		},
	}
	raw, err := json.Marshal(mail)
	if err != nil {
		return 0, err
	}
	path := fmt.Sprintf("/characters/%d/mail/", client.CharacterId)
	req, err := http.NewRequest(http.MethodPost, client.BaseURL+path, bytes.NewReader(raw))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(ctx, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 420 {
		return 0, ErrEsiRateLimited
	}
	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("esi mail send returned %d: %s", resp.StatusCode, string(msg))
	}

	// ESI returns the new mail id as a bare integer body.
	var mailId int
	if err := json.NewDecoder(resp.Body).Decode(&mailId); err != nil {
		return 0, err
	}
	return mailId, nil
}
