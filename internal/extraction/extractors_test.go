package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("findDate", func() {
	var (
		text  string
		value string
		conf  float64
	)

	JustBeforeEach(func() {
		value, conf = findDate(text)
	})

	When("the date has spaced separators", func() {
		BeforeEach(func() {
			text = "Visited on 2013 - 11 - 03 at noon"
		})

		It("de-spaces the match", func() {
			Expect(value).To(Equal("2013-11-03"))
		})

		It("scores the spaced form highest", func() {
			Expect(conf).To(Equal(0.8))
		})
	})

	When("the date is a compact year-first form", func() {
		BeforeEach(func() {
			text = "Date: 2013-11-03"
		})

		It("returns the date", func() {
			Expect(value).To(Equal("2013-11-03"))
		})
	})

	When("the date is day-first", func() {
		BeforeEach(func() {
			text = "Date: 11/03/2013"
		})

		It("returns the date", func() {
			Expect(value).To(Equal("11/03/2013"))
		})

		It("scores it as a compact match", func() {
			Expect(conf).To(Equal(0.75))
		})
	})

	When("the date uses a two-digit year", func() {
		BeforeEach(func() {
			text = "11-03-13"
		})

		It("returns the date", func() {
			Expect(value).To(Equal("11-03-13"))
			Expect(conf).To(Equal(0.75))
		})
	})

	When("no date exists", func() {
		BeforeEach(func() {
			text = "no dates here"
		})

		It("reports a miss with low confidence", func() {
			Expect(value).To(Equal(""))
			Expect(conf).To(Equal(0.3))
		})
	})
})

var _ = Describe("findCurrency", func() {
	When("a currency symbol is present", func() {
		It("returns the first token found", func() {
			value, conf := findCurrency("Total 45.50 $")
			Expect(value).To(Equal("$"))
			Expect(conf).To(Equal(0.9))
		})

		It("recognizes ISO codes", func() {
			value, _ := findCurrency("Total GBP 12.00")
			Expect(value).To(Equal("GBP"))
		})
	})

	When("no currency token is present", func() {
		It("falls back to EUR at reduced confidence", func() {
			value, conf := findCurrency("Total 45.50")
			Expect(value).To(Equal("EUR"))
			Expect(conf).To(Equal(0.6))
		})
	})
})

var _ = Describe("findMerchant", func() {
	var (
		lines []string
		words []Word
		value string
		conf  float64
	)

	BeforeEach(func() {
		words = nil
	})

	JustBeforeEach(func() {
		value, conf = findMerchant(lines, words)
	})

	When("the top lines are usable", func() {
		BeforeEach(func() {
			lines = []string{"** ACME Supermarkt **", "42 Main Street 10115 Berlin"}
		})

		It("strips leading non-letter characters", func() {
			Expect(value).To(Equal("ACME Supermarkt **"))
		})
	})

	When("the first lines are all boilerplate", func() {
		BeforeEach(func() {
			lines = []string{"TAX INVOICE", "duplicate copy", "receipt"}
		})

		It("falls back to the very first line", func() {
			Expect(value).To(Equal("TAX INVOICE"))
		})

		It("marks the fallback with low confidence", func() {
			Expect(conf).To(Equal(0.4))
		})
	})

	When("address-like lines precede the name", func() {
		BeforeEach(func() {
			lines = []string{"0301 120 554 880", "ACME Supermarkt"}
		})

		It("skips the numeric line", func() {
			Expect(value).To(Equal("ACME Supermarkt"))
		})
	})

	When("word confidences are available", func() {
		BeforeEach(func() {
			lines = []string{"ACME Supermarkt"}
			words = []Word{
				{Text: "acme", Confidence: 0.98},
				{Text: "SUPERMARKT", Confidence: 0.82},
				{Text: "unrelated", Confidence: 0.10},
			}
		})

		It("averages the matched confidences case-insensitively", func() {
			Expect(conf).To(Equal(0.90))
		})
	})

	When("the estimator would overshoot the clamp", func() {
		BeforeEach(func() {
			lines = []string{"ACME"}
			words = []Word{{Text: "ACME", Confidence: 1.0}}
		})

		It("clamps the confidence to 0.95", func() {
			Expect(conf).To(Equal(0.95))
		})
	})

	When("no line survives and the document is empty", func() {
		BeforeEach(func() {
			lines = nil
		})

		It("returns an empty merchant at fallback confidence", func() {
			Expect(value).To(Equal(""))
			Expect(conf).To(Equal(0.4))
		})
	})
})

var _ = Describe("phraseConfidence", func() {
	words := []Word{
		{Text: "ACME", Confidence: 0.9},
		{Text: "Markt", Confidence: 0.7},
		{Text: "blur", Confidence: -1},
	}

	It("returns 0 for an empty phrase", func() {
		Expect(phraseConfidence(words, nil)).To(Equal(0.0))
	})

	It("returns the neutral default when nothing matches", func() {
		Expect(phraseConfidence(words, []string{"espresso"})).To(Equal(0.5))
	})

	It("averages matched confidences", func() {
		Expect(phraseConfidence(words, []string{"acme", "markt"})).To(BeNumerically("~", 0.8, 1e-9))
	})

	It("ignores unscored words", func() {
		Expect(phraseConfidence(words, []string{"blur"})).To(Equal(0.5))
	})
})

var _ = Describe("splitLines", func() {
	It("drops blank lines and collapses whitespace", func() {
		lines := splitLines("  ACME   Markt  \n\n\tTotal\t6.00\n")
		Expect(lines).To(Equal([]string{"ACME Markt", "Total 6.00"}))
	})

	It("returns nil for empty input", func() {
		Expect(splitLines("")).To(BeEmpty())
	})
})

var _ = Describe("isNoiseLine", func() {
	It("flags short lines", func() {
		Expect(isNoiseLine("ab")).To(BeTrue())
	})

	It("flags boilerplate phrases case-insensitively", func() {
		Expect(isNoiseLine("Thank You for shopping")).To(BeTrue())
		Expect(isNoiseLine("TAX INVOICE")).To(BeTrue())
		Expect(isNoiseLine("Customer Copy")).To(BeTrue())
	})

	It("keeps content lines", func() {
		Expect(isNoiseLine("ACME Supermarkt")).To(BeFalse())
	})
})
