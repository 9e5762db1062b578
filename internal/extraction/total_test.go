package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("findTotal", func() {
	var (
		lines []string
		value string
		conf  float64
	)

	JustBeforeEach(func() {
		value, conf = findTotal(lines)
	})

	When("a plain total line exists", func() {
		BeforeEach(func() {
			lines = []string{"Coffee 3.50", "TOTAL 45.50"}
		})

		It("returns the amount on the total line", func() {
			Expect(value).To(Equal("45.50"))
		})

		It("scores it as a direct read", func() {
			Expect(conf).To(Equal(0.8))
		})
	})

	When("the total line uses a decimal comma", func() {
		BeforeEach(func() {
			lines = []string{"Total 45,50"}
		})

		It("normalizes the comma to a dot", func() {
			Expect(value).To(Equal("45.50"))
		})
	})

	When("the receipt says Amount Due instead of Total", func() {
		BeforeEach(func() {
			lines = []string{"Amount Due 18.20"}
		})

		It("returns the amount", func() {
			Expect(value).To(Equal("18.20"))
			Expect(conf).To(Equal(0.8))
		})
	})

	When("the receipt says Balance Due", func() {
		BeforeEach(func() {
			lines = []string{"Balance Due 7.99"}
		})

		It("returns the amount", func() {
			Expect(value).To(Equal("7.99"))
			Expect(conf).To(Equal(0.8))
		})
	})

	When("the OCR total disagrees with subtotal plus tax", func() {
		BeforeEach(func() {
			// A misread leading digit: 191.44 read as 31.44.
			lines = []string{"Sub Total 170.44", "Tax 21.00", "Total 31.44"}
		})

		It("overrides the read total with the computed sum", func() {
			Expect(value).To(Equal("191.44"))
		})

		It("scores the override below a clean read", func() {
			Expect(conf).To(Equal(0.7))
		})
	})

	When("the OCR total agrees with subtotal plus tax", func() {
		BeforeEach(func() {
			lines = []string{"Sub Total 170.44", "Tax 21.00", "Total 191.44"}
		})

		It("keeps the read total", func() {
			Expect(value).To(Equal("191.44"))
			Expect(conf).To(Equal(0.8))
		})
	})

	When("only subtotal and tax are present", func() {
		BeforeEach(func() {
			lines = []string{"Subtotal 12.00", "Tax 1.20"}
		})

		It("computes the total from the parts", func() {
			Expect(value).To(Equal("13.20"))
			Expect(conf).To(Equal(0.65))
		})
	})

	When("a sub total line is the only 'total' mention", func() {
		BeforeEach(func() {
			lines = []string{"Sub Total 170.00"}
		})

		It("does not treat the subtotal as a direct total read", func() {
			// The amount still surfaces through the weak bottom-scan
			// fallback, marked with its much lower confidence.
			Expect(value).To(Equal("170.00"))
			Expect(conf).To(Equal(0.5))
		})
	})

	When("no keyword lines exist but amounts do", func() {
		BeforeEach(func() {
			lines = []string{"Coffee 3.50", "Cake 12.90", "Water 1.10"}
		})

		It("falls back to the largest amount near the bottom", func() {
			Expect(value).To(Equal("12.90"))
			Expect(conf).To(Equal(0.5))
		})
	})

	When("no amounts exist at all", func() {
		BeforeEach(func() {
			lines = []string{"thanks for shopping"}
		})

		It("reports a miss with low confidence", func() {
			Expect(value).To(Equal(""))
			Expect(conf).To(Equal(0.3))
		})
	})

	When("the total line carries several amounts", func() {
		BeforeEach(func() {
			lines = []string{"Total 2 items 45.50"}
		})

		It("takes the last amount on the line", func() {
			Expect(value).To(Equal("45.50"))
		})
	})
})
