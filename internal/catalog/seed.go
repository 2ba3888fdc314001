package catalog

import (
	"time"

	"github.com/nightapi/nightapi/internal/model"
)

var seedJokes = []struct{ joke, category string }{
	{"Why don't scientists trust atoms? Because they make up everything!", "science"},
	{"I told my wife she was drawing her eyebrows too high. She looked surprised.", "pun"},
	{"What do you call a fake noodle? An impasta.", "food"},
	{"Why did the scarecrow win an award? Because he was outstanding in his field.", "pun"},
	{"I'm reading a book about anti-gravity. It's impossible to put down!", "science"},
	{"Did you hear about the mathematician who's afraid of negative numbers? He'll stop at nothing to avoid them.", "math"},
	{"Why did the bicycle fall over? Because it was two tired!", "pun"},
	{"What's the best thing about Switzerland? I don't know, but the flag is a big plus.", "geography"},
	{"How do you organize a space party? You planet!", "space"},
	{"Why did the programmer quit his job? Because he didn't get arrays.", "programming"},
}

var seedQuotes = []struct{ text, author string }{
	{"The night is darkest just before the dawn.", "Harvey Dent"},
	{"Stars can't shine without darkness.", "D.H. Sidebottom"},
	{"Those who dream by day are cognizant of many things which escape those who dream only by night.", "Edgar Allan Poe"},
	{"The night is a world lit by itself.", "Antonio Porchia"},
	{"Night is the other half of life, and the better half.", "Goethe"},
}

// SeedJokes returns the built-in jokes with ids starting at 1.
func SeedJokes(now time.Time) []model.Joke {
	out := make([]model.Joke, len(seedJokes))
	for i, j := range seedJokes {
		out[i] = model.Joke{ID: i + 1, Joke: j.joke, Category: j.category, CreatedAt: now}
	}
	return out
}

// SeedQuotes returns the built-in quotes with ids starting at 1.
func SeedQuotes(now time.Time) []model.Quote {
	out := make([]model.Quote, len(seedQuotes))
	for i, q := range seedQuotes {
		out[i] = model.Quote{ID: i + 1, Text: q.text, Author: q.author, CreatedAt: now}
	}
	return out
}
