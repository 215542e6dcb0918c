package discord

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/systemcmd0122/developer-bot/backend/model"
	"github.com/systemcmd0122/developer-bot/session"
	"github.com/systemcmd0122/developer-bot/valorant"
)

func TestRPSResult(t *testing.T) {
	base := session.Session{
		Participants: []string{"alice", "bob"},
	}

	draw := base
	draw.Choices = map[string]string{"alice": "rock", "bob": "rock"}
	require.Contains(t, rpsResult(draw), "あいこ")

	firstWins := base
	firstWins.Choices = map[string]string{"alice": "paper", "bob": "rock"}
	require.Contains(t, rpsResult(firstWins), "<@alice> の勝ち")

	secondWins := base
	secondWins.Choices = map[string]string{"alice": "scissors", "bob": "rock"}
	require.Contains(t, rpsResult(secondWins), "<@bob> の勝ち")
}

func TestRPSResultRejectsBadParticipantCount(t *testing.T) {
	sess := session.Session{
		Participants: []string{"alice"},
		Choices:      map[string]string{"alice": "rock"},
	}
	require.Equal(t, "結果を判定できませんでした。", rpsResult(sess))
}

func TestRecruitGameFromContent(t *testing.T) {
	content := recruitContent("Valorant", 5, []string{"alice"})
	require.Equal(t, "Valorant", recruitGameFromContent(content))

	require.Equal(t, "?", recruitGameFromContent("no bold text here"))
}

func TestRecruitContentShowsCount(t *testing.T) {
	content := recruitContent("Apex", 3, []string{"alice", "bob"})
	require.Contains(t, content, "(2/3)")
	require.Contains(t, content, "<@alice> <@bob>")

	empty := recruitContent("Apex", 3, nil)
	require.Contains(t, empty, "(0/3)")
	require.NotContains(t, empty, "参加者")
}

func TestFormatFriendCodes(t *testing.T) {
	require.Equal(t, "登録されたフレンドコードはありません。", formatFriendCodes(nil))

	out := formatFriendCodes([]model.FriendCode{
		{UserID: "alice", Game: "Splatoon", Code: "SW-1234", UpdatedAt: time.Now()},
	})
	require.Contains(t, out, "**Splatoon**")
	require.Contains(t, out, "`SW-1234`")
}

func TestValorantErrorMessage(t *testing.T) {
	require.Contains(t, valorantErrorMessage(valorant.ErrNotFound), "見つかりませんでした")
	require.Contains(t, valorantErrorMessage(valorant.ErrRateLimited), "利用制限")
	require.Contains(t, valorantErrorMessage(valorant.ErrForbidden), "認証に失敗")
	require.Equal(t, msgGenericError, valorantErrorMessage(errors.New("boom")))
}

func TestRPSButtonsCoverEveryHand(t *testing.T) {
	rows := rpsButtons()
	require.Len(t, rows, 1)
}

func TestRoleBoardButtons(t *testing.T) {
	rows := roleBoardButtons([]model.BoardRole{
		{RoleID: "1", Label: "Gamer"},
		{RoleID: "2", Label: "Artist"},
	})
	require.Len(t, rows, 1)
}
