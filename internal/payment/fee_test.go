package payment_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	paymentPkg "github.com/licensepro/backend/internal/payment"
)

var _ = Describe("CalculateExamFee", func() {
	DescribeTable("base fees by license type",
		func(licenseType, expected string) {
			fee := paymentPkg.CalculateExamFee(licenseType, "")
			Expect(fee.StringFixed(2)).To(Equal(expected))
		},
		Entry("learner", "learner", "2500.00"),
		Entry("restricted", "restricted", "3000.00"),
		Entry("full", "full", "4000.00"),
		Entry("heavy", "heavy", "6000.00"),
		Entry("commercial", "commercial", "7500.00"),
		Entry("international", "international", "5000.00"),
		Entry("motorcycle", "motorcycle", "3500.00"),
		Entry("special", "special", "8000.00"),
	)

	It("should be case-insensitive on license type", func() {
		Expect(paymentPkg.CalculateExamFee("FULL", "").StringFixed(2)).To(Equal("4000.00"))
		Expect(paymentPkg.CalculateExamFee("  Heavy  ", "").StringFixed(2)).To(Equal("6000.00"))
	})

	It("should fall back to the default fee for unknown types", func() {
		Expect(paymentPkg.CalculateExamFee("tractor", "").StringFixed(2)).To(Equal("3000.00"))
		Expect(paymentPkg.CalculateExamFee("", "").StringFixed(2)).To(Equal("3000.00"))
	})

	It("should not surcharge a single vehicle class", func() {
		Expect(paymentPkg.CalculateExamFee("full", "B").StringFixed(2)).To(Equal("4000.00"))
	})

	It("should add a flat surcharge per extra vehicle class", func() {
		Expect(paymentPkg.CalculateExamFee("full", "B,C").StringFixed(2)).To(Equal("4500.00"))
		Expect(paymentPkg.CalculateExamFee("full", "B,C,D").StringFixed(2)).To(Equal("5000.00"))
	})

	It("should ignore empty entries in the class list", func() {
		Expect(paymentPkg.CalculateExamFee("full", "B, ,C,").StringFixed(2)).To(Equal("4500.00"))
		Expect(paymentPkg.CalculateExamFee("full", " , ").StringFixed(2)).To(Equal("4000.00"))
	})
})
