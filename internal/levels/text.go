package levels

import "fmt"

// rubrics is indexed by ordinal-1. Each entry receives the topic name.
var rubrics = [Max]func(topic string) string{
	func(t string) string {
		return fmt.Sprintf("The student has not demonstrated any understanding of %s at hand.", t)
	},
	func(t string) string {
		return fmt.Sprintf("The student has demonstrated a solid intuitive understanding of %[1]s, "+
			"but has not demonstrated a solid understanding and comfort with the mathematical notation, "+
			"i.e. they may be able to explain what %[1]s is, what it does, or what it \"means\", "+
			"but they are unable to explain the mathematical notation or how it mathematically works.", t)
	},
	func(t string) string {
		return fmt.Sprintf("The student has demonstrated a strong understanding of %[1]s, with a solid intuitive "+
			"understanding and comfort with the mathematical notation. However the student has not yet shown they can "+
			"recognize corollaries, logical extensions, or variations of %[1]s; they only recognize that %[1]s "+
			"applies to a problem when it is presented at face value.", t)
	},
	func(t string) string {
		return fmt.Sprintf("The student has demonstrated a strong, well rounded understanding of %[1]s, enough to apply "+
			"it to alternative and unfamiliar scenarios. This level is only relevant if there are techniques, tricks, "+
			"or tips surrounding %[1]s for exam problems that they have not demonstrated knowledge of yet.", t)
	},
	func(t string) string {
		return fmt.Sprintf("The student has demonstrated mastery of %[1]s. They are able to teach others about %[1]s "+
			"and comfortably solve difficult, unfamiliar problems related to %[1]s.", t)
	},
}

// guidance is indexed by ordinal-1. Each entry receives the topic name.
var guidance = [Max]func(topic string) string{
	func(t string) string {
		return fmt.Sprintf("You should explain %s and answer their questions in a way that is intuitive and easy to "+
			"understand. Use little, if any, mathematical notation. The goal is for them to develop a solid "+
			"understanding of broadly what the topic is or what it does.", t)
	},
	func(t string) string {
		return fmt.Sprintf("You should explain %s and answer their questions mathematically. The goal is for the "+
			"student to understand and be comfortable with the mathematical notation of the topic.", t)
	},
	func(t string) string {
		return fmt.Sprintf("You should explain %[1]s and answer their questions while introducing relevant and "+
			"practical corollaries or variations of %[1]s. The student understands %[1]s at face value, so the goal "+
			"is for them to be comfortable with variations they might see, deepening their understanding of %[1]s "+
			"beyond the original notation.", t)
	},
	func(t string) string {
		return fmt.Sprintf("You should explain %[1]s and answer their questions while introducing techniques and "+
			"tricks for solving problems related to %[1]s. The student has a well rounded understanding of %[1]s "+
			"and its variations, so the goal is to strengthen their ability to solve homework or exam problems.", t)
	},
	func(t string) string {
		return fmt.Sprintf("No further guidance is necessarily needed at this level. If the student wishes to keep "+
			"doing practice problems or has specific questions, continue to guide and help them. You may recommend "+
			"moving on to a different topic if they seem ready. Continue to solidify their understanding by closing "+
			"any remaining gaps of knowledge related to %s.", t)
	},
}
