package brain

import "strings"

// Bucket is a topic a question can fall into. Triggers are matched against
// the lowercased question; Tags and Keywords select the records cited when
// the bucket answers.
type Bucket struct {
	Name     string
	Triggers []string
	Tags     []string
	Keywords []string
	Reply    string
}

const (
	BucketFearAndCourage = "fear-and-courage"
	BucketParenting      = "parenting"
	BucketGrowth         = "growth"
	BucketGeneric        = "generic"
)

// Classifier maps a question to a bucket. Implementations must be
// deterministic.
type Classifier interface {
	Classify(question string) Bucket
}

// DefaultBuckets returns the rule buckets in priority order.
func DefaultBuckets() []Bucket {
	return []Bucket{
		{
			Name:     BucketFearAndCourage,
			Triggers: []string{"fear"},
			Tags:     []string{"fear", "courage", "anxiety"},
			Keywords: []string{"courage", "brave", "scared"},
			Reply: "Based on your memories, you believe that courage isn't the absence of fear, but feeling fear and choosing to act anyway. " +
				"This wisdom came from your father, who taught you that the bravest thing you can do is act despite your fears. " +
				"You've applied this philosophy throughout your life, especially during difficult moments.",
		},
		{
			Name:     BucketParenting,
			Triggers: []string{"child", "parenting"},
			Tags:     []string{"parenting", "family", "children"},
			Keywords: []string{"parent", "kids"},
			Reply: "Your philosophy on parenting centers around raising children with both courage and kindness. " +
				"You believe in loving unconditionally while also teaching responsibility. " +
				"You want your children to know they are supported, but also challenged to grow. " +
				"The balance between support and challenge is something you think about deeply.",
		},
		{
			Name:     BucketGrowth,
			Triggers: []string{"lesson", "learn"},
			Tags:     []string{"growth", "wisdom", "healing"},
			Keywords: []string{"letting go"},
			Reply: "One of your most profound recent lessons has been about letting go. " +
				"You've learned that it's not about forgetting or dismissing what happened, but about choosing not to carry the weight of it anymore. " +
				"Sometimes the bravest thing you can do is put down what you've been carrying.",
		},
	}
}

// GenericBucket answers anything no rule bucket claims. It cites nothing.
func GenericBucket() Bucket {
	return Bucket{Name: BucketGeneric}
}

// RuleClassifier picks the first bucket, in slice order, whose triggers
// occur in the lowercased question.
type RuleClassifier struct {
	Buckets  []Bucket
	Fallback Bucket
}

func NewRuleClassifier() RuleClassifier {
	return RuleClassifier{Buckets: DefaultBuckets(), Fallback: GenericBucket()}
}

func (c RuleClassifier) Classify(question string) Bucket {
	q := strings.ToLower(question)
	for _, bucket := range c.Buckets {
		for _, trigger := range bucket.Triggers {
			if strings.Contains(q, trigger) {
				return bucket
			}
		}
	}
	return c.Fallback
}
