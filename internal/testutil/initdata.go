// Package testutil holds helpers shared by package tests.
package testutil

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/AlexHorzhij/spravzhnya-tg-orders/internal/features/host/models"
)

// SignInitData builds a Telegram init-data query string signed for token.
func SignInitData(token string, params map[string]string, authDate time.Time) string {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	q.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	q.Set("hash", initdata.Sign(params, token, authDate))
	return q.Encode()
}

// UserInitData signs init-data carrying a user with the given id and first name.
func UserInitData(token string, id int64, firstName string) string {
	user, err := json.Marshal(models.HostUser{ID: id, FirstName: firstName, Username: "tester"})
	if err != nil {
		panic(err)
	}
	return SignInitData(token, map[string]string{"query_id": "AAH", "user": string(user)}, time.Now())
}
