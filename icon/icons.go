package icon

// Icon identifies a UI symbol.
type Icon int

const (
	Success Icon = iota
	Fail
	Warn
	Progress
	Play
	Pause
	Next
	Previous
	Repeat
	RepeatOne
	Shuffle
	Audio
	Subtitle
	Chapter
	Volume
	Mute
	Episode
	Lua
)

var icons = map[Icon]iconDef{
	Success:   {emoji: "✅", nerd: "", plain: "OK", kaomoji: "(ᵔᴥᵔ)", squares: "▣"},
	Fail:      {emoji: "❌", nerd: "", plain: "X", kaomoji: "(╯°□°)╯", squares: "▨"},
	Warn:      {emoji: "⚠️", nerd: "", plain: "!", kaomoji: "(・_・;)", squares: "◬"},
	Progress:  {emoji: "⏳", nerd: "", plain: "...", kaomoji: "(・ω・)", squares: "◫"},
	Play:      {emoji: "▶️", nerd: "", plain: ">", kaomoji: "(•̀ᴗ•́)و", squares: "▶"},
	Pause:     {emoji: "⏸️", nerd: "", plain: "||", kaomoji: "(－_－) zzZ", squares: "⏸"},
	Next:      {emoji: "⏭️", nerd: "", plain: ">>|", kaomoji: "(ﾉ>ω<)ﾉ", squares: "⏭"},
	Previous:  {emoji: "⏮️", nerd: "", plain: "|<<", kaomoji: "ヽ(>ω<ヽ)", squares: "⏮"},
	Repeat:    {emoji: "🔁", nerd: "", plain: "R", kaomoji: "(↻)", squares: "⟳"},
	RepeatOne: {emoji: "🔂", nerd: "", plain: "R1", kaomoji: "(↻1)", squares: "⟲"},
	Shuffle:   {emoji: "🔀", nerd: "", plain: "S", kaomoji: "(~_~)", squares: "⤮"},
	Audio:     {emoji: "🔈", nerd: "", plain: "A", kaomoji: "♪(´ε｀ )", squares: "◖"},
	Subtitle:  {emoji: "💬", nerd: "", plain: "CC", kaomoji: "(¬‿¬)", squares: "◗"},
	Chapter:   {emoji: "🔖", nerd: "", plain: "#", kaomoji: "(・∀・)", squares: "▤"},
	Volume:    {emoji: "🔊", nerd: "", plain: "VOL", kaomoji: "(ﾟ∀ﾟ)", squares: "◨"},
	Mute:      {emoji: "🔇", nerd: "", plain: "MUTE", kaomoji: "(￣b￣)", squares: "◧"},
	Episode:   {emoji: "🎞️", nerd: "", plain: "EP", kaomoji: "(｀・ω・´)", squares: "▦"},
	Lua:       {emoji: "🌙", nerd: "", plain: "Lua", kaomoji: "(◕‿◕)", squares: "◐"},
}
