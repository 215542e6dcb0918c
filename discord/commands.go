package discord

import "github.com/bwmarrin/discordgo"

var AFKCommand = &discordgo.ApplicationCommand{
	Name:        "afk",
	Description: "通話切断通知の設定",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "notifications",
			Description: "通知のオン・オフを切り替える",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "enabled",
					Description: "通知を有効にするか",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "status",
			Description: "現在の設定を確認する",
		},
	},
}

var AnnounceCommand = &discordgo.ApplicationCommand{
	Name:        "announce",
	Description: "お知らせを送信する",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "message",
			Description: "お知らせの本文",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "url",
			Description: "リンクプレビューを付けるURL",
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "everywhere",
			Description: "サーバー内の全テキストチャンネルに送信する",
		},
	},
}

var FriendCodeCommand = &discordgo.ApplicationCommand{
	Name:        "friendcode",
	Description: "フレンドコードの登録・共有",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "register",
			Description: "フレンドコードを登録する",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "game",
					Description: "ゲーム名",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "code",
					Description: "フレンドコード",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "list",
			Description: "登録されたフレンドコードを一覧する",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "game",
					Description: "ゲーム名で絞り込む",
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "delete",
			Description: "自分のフレンドコードを削除する",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "game",
					Description: "ゲーム名",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "board",
			Description: "ゲーム選択ボードを設置する",
		},
	},
}

var GameCommand = &discordgo.ApplicationCommand{
	Name:        "game",
	Description: "ミニゲームで遊ぶ",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "rps",
			Description: "じゃんけんで対戦する",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "opponent",
					Description: "対戦相手",
					Required:    true,
				},
			},
		},
	},
}

var RecruitCommand = &discordgo.ApplicationCommand{
	Name:        "recruit",
	Description: "メンバー募集を開始する",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "game",
			Description: "募集するゲーム",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "capacity",
			Description: "募集人数",
			Required:    true,
			MinValue:    &recruitMinCapacity,
		},
	},
}

var RoleBoardCommand = &discordgo.ApplicationCommand{
	Name:        "roleboard",
	Description: "ロール付与ボードの管理",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "create",
			Description: "ロールボードを作成する",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "title",
					Description: "ボードのタイトル",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role1",
					Description: "ロール1",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role2",
					Description: "ロール2",
				},
				{
					Type:        discordgo.ApplicationCommandOptionRole,
					Name:        "role3",
					Description: "ロール3",
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "delete",
			Description: "ロールボードを削除する",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "board_id",
					Description: "ボードID",
					Required:    true,
				},
			},
		},
	},
}

var TalkCommand = &discordgo.ApplicationCommand{
	Name:        "talk",
	Description: "AIと雑談する",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "prompt",
			Description: "話しかける内容",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionBoolean,
			Name:        "reset",
			Description: "会話履歴をリセットしてから話す",
		},
	},
}

var ValorantCommand = &discordgo.ApplicationCommand{
	Name:        "valorant",
	Description: "Valorantの戦績を調べる",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "account",
			Description: "アカウント情報を表示する",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "プレイヤー名",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "tag",
					Description: "タグ (#以降)",
					Required:    true,
				},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        "rank",
			Description: "現在のランクを表示する",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "region",
					Description: "リージョン (ap, na, eu ...)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "プレイヤー名",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "tag",
					Description: "タグ (#以降)",
					Required:    true,
				},
			},
		},
	},
}

var recruitMinCapacity float64 = 1

// Commands lists everything registered at startup.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		AFKCommand,
		AnnounceCommand,
		FriendCodeCommand,
		GameCommand,
		RecruitCommand,
		RoleBoardCommand,
		TalkCommand,
		ValorantCommand,
	}
}
