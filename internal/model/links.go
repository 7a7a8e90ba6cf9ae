package model

import (
	"strings"
	"time"
)

// UserLinks holds a user's handles on external coding platforms.
// Every user has exactly one row, created with the user and removed with it.
type UserLinks struct {
	UserID        string    `json:"userId"        db:"user_id"`
	RollNumber    string    `json:"rollNumber"    db:"roll_number"`
	LeetCode      string    `json:"leetcode"      db:"leetcode"`
	Codeforces    string    `json:"codeforces"    db:"codeforces"`
	AtCoder       string    `json:"atcoder"       db:"atcoder"`
	GitHub        string    `json:"github"        db:"github"`
	HackerRank    string    `json:"hackerrank"    db:"hackerrank"`
	CodeChef      string    `json:"codechef"      db:"codechef"`
	GeeksForGeeks string    `json:"geeksforgeeks" db:"geeksforgeeks"`
	HackerEarth   string    `json:"hackerearth"   db:"hackerearth"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}

// LinksPatch is a partial update: nil fields are left untouched,
// non-nil fields (including empty strings) overwrite the stored value.
type LinksPatch struct {
	LeetCode      *string `json:"leetcode"      validate:"omitempty,max=64"`
	Codeforces    *string `json:"codeforces"    validate:"omitempty,max=64"`
	AtCoder       *string `json:"atcoder"       validate:"omitempty,max=64"`
	GitHub        *string `json:"github"        validate:"omitempty,max=100"`
	HackerRank    *string `json:"hackerrank"    validate:"omitempty,max=64"`
	CodeChef      *string `json:"codechef"      validate:"omitempty,max=64"`
	GeeksForGeeks *string `json:"geeksforgeeks" validate:"omitempty,max=64"`
	HackerEarth   *string `json:"hackerearth"   validate:"omitempty,max=64"`
}

// Empty reports whether the patch would change nothing.
func (p LinksPatch) Empty() bool {
	return p.LeetCode == nil && p.Codeforces == nil && p.AtCoder == nil && p.GitHub == nil &&
		p.HackerRank == nil && p.CodeChef == nil && p.GeeksForGeeks == nil && p.HackerEarth == nil
}

// Apply copies every non-nil field of p onto l.
func (p LinksPatch) Apply(l *UserLinks) {
	set(&l.LeetCode, p.LeetCode)
	set(&l.Codeforces, p.Codeforces)
	set(&l.AtCoder, p.AtCoder)
	set(&l.GitHub, p.GitHub)
	set(&l.HackerRank, p.HackerRank)
	set(&l.CodeChef, p.CodeChef)
	set(&l.GeeksForGeeks, p.GeeksForGeeks)
	set(&l.HackerEarth, p.HackerEarth)
}

func set(dst, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

// AnalyticsHandles returns the handles the analytics service can aggregate,
// skipping blank ones. The result is empty when none is linked.
func (l *UserLinks) AnalyticsHandles() []PlatformHandle {
	out := make([]PlatformHandle, 0, 3)
	for _, h := range []PlatformHandle{
		{Platform: PlatformLeetCode, Handle: l.LeetCode},
		{Platform: PlatformCodeforces, Handle: l.Codeforces},
		{Platform: PlatformAtCoder, Handle: l.AtCoder},
	} {
		if strings.TrimSpace(h.Handle) != "" {
			out = append(out, h)
		}
	}
	return out
}
