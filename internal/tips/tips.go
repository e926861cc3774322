// Package tips rotates short hints about habit commands.
package tips

import "time"

var all = []string{
	"`habit done <name> --date yesterday` to log a day you forgot.",
	"`habit today` opens a checklist: x toggles, / filters.",
	"`habit streak <name>` shows the last two weeks at a glance.",
	"`habit archive <name>` hides a habit but keeps its history.",
	"`habit log <name>` lists every day you've done it.",
	"`habit export -o habits.age` writes an encrypted backup.",
	"`habit serve` plus `habit token` gives you a JSON API.",
	"`habit config set habit.timezone Europe/Berlin` if \"today\" feels off.",
	"`habit list --json` pipes nicely into jq.",
	"ids work too: `habit done 3f2a` matches by prefix.",
}

// All returns a copy of the tip pool.
func All() []string {
	out := make([]string, len(all))
	copy(out, all)
	return out
}

// Daily returns the tip for t's calendar day. It is stable all day.
func Daily(t time.Time) string {
	return all[t.YearDay()%len(all)]
}
