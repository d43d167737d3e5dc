package memory

import "strings"

type Topic string

const (
	TopicGeneral       Topic = "general"
	TopicWeather       Topic = "weather"
	TopicTechnology    Topic = "technology"
	TopicScience       Topic = "science"
	TopicSports        Topic = "sports"
	TopicEntertainment Topic = "entertainment"
	TopicHealth        Topic = "health"
	TopicFood          Topic = "food"
	TopicTravel        Topic = "travel"
	TopicHistory       Topic = "history"
)

type topicKeywords struct {
	topic    Topic
	keywords []string
}

// Scanned in order, first hit wins. Weather sits ahead of food so that
// "weather" is not classified by a food word hidden inside it.
var taxonomy = []topicKeywords{
	{TopicWeather, []string{"weather", "raining", "rainy", "temperature", "forecast", "sunny", "snow", "climate"}},
	{TopicTechnology, []string{"computer", "software", "phone", "internet", "robot", "program", "technology", "artificial intelligence", "laptop"}},
	{TopicScience, []string{"science", "physics", "chemistry", "biology", "planet", "atom", "universe", "galaxy", "space"}},
	{TopicSports, []string{"sports", "football", "soccer", "basketball", "cricket", "tennis", "olympic", "team"}},
	{TopicEntertainment, []string{"movie", "music", "song", "film", "actor", "celebrity", "book", "television"}},
	{TopicHealth, []string{"health", "doctor", "medicine", "exercise", "diet", "sleep", "disease", "vitamin"}},
	{TopicFood, []string{"food", "recipe", "cook", "restaurant", "dish", "meal", "pizza"}},
	{TopicTravel, []string{"travel", "country", "flight", "hotel", "vacation", "trip", "capital"}},
	{TopicHistory, []string{"history", "world war", "ancient", "kingdom", "queen", "president", "century", "empire"}},
}

// Classify picks the first topic with a keyword contained in q.
func Classify(q string) Topic {
	q = strings.ToLower(q)
	for _, tk := range taxonomy {
		for _, k := range tk.keywords {
			if strings.Contains(q, k) {
				return tk.topic
			}
		}
	}
	return TopicGeneral
}
