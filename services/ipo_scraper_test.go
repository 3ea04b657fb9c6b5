package services

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScraper() *ChittorgarhScraper {
	return NewChittorgarhScraper(nil, NewUtilityService())
}

const detailPageHTML = `
<html><body>
<table>
<tr><td>IPO Open Date</td><td>Mon, Jul 28, 2025</td></tr>
<tr><td>IPO Close Date</td><td>Wed, Jul 30, 2025</td></tr>
<tr><td>Listing Date</td><td>Mon, Aug 4, 2025</td></tr>
<tr><td>Tentative Allotment</td><td>Thu, Jul 31, 2025</td></tr>
<tr><td>Initiation of Refunds</td><td>Fri, Aug 1, 2025</td></tr>
<tr><td>Credit of Shares to Demat</td><td>Fri, Aug 1, 2025</td></tr>
<tr><td>Issue Price Band</td><td>&#8377;90 to &#8377;95 per share</td></tr>
<tr><td>Lot Size</td><td>1,600 Shares</td></tr>
<tr><td>Issue Size</td><td>&#8377;24.87 Cr</td></tr>
</table>
<table>
<tr><td>NII (HNI) Shares Offered</td><td>5,23,200 (20.02%)</td></tr>
<tr><td>Retail Shares Offered</td><td>12,20,800 (46.72%)</td><td>763</td></tr>
</table>
<table>
<tr><th>Application</th><th>Lots</th><th>Shares</th><th>Amount</th></tr>
<tr><td>Retail (Min)</td><td>2</td><td>3,200</td><td>&#8377;3,04,000</td></tr>
<tr><td>Retail (Max)</td><td>2</td><td>3,200</td><td>&#8377;3,04,000</td></tr>
<tr><td>S-HNI (Min)</td><td>3</td><td>4,800</td><td>&#8377;4,56,000</td></tr>
<tr><td>S-HNI (Max)</td><td>6</td><td>9,600</td><td>&#8377;9,12,000</td></tr>
<tr><td>B-HNI (Min)</td><td>7</td><td>11,200</td><td>&#8377;10,64,000</td></tr>
</table>
<a href="https://www.investorgain.com/chr-gmp/sample-ipo/1023/">GMP Tracker</a>
</body></html>`

func TestExtractDetail(t *testing.T) {
	scraper := newTestScraper()

	document, err := goquery.NewDocumentFromReader(strings.NewReader(detailPageHTML))
	require.NoError(t, err)

	detail := scraper.extractDetail(document)

	assert.Equal(t, "Mon, Jul 28, 2025", detail.OpenDate)
	assert.Equal(t, "Wed, Jul 30, 2025", detail.CloseDate)
	assert.Equal(t, "Mon, Aug 4, 2025", detail.ListingDate)
	assert.Equal(t, "Thu, Jul 31, 2025", detail.AllotmentDate)
	assert.Equal(t, "Fri, Aug 1, 2025", detail.RefundDate)
	assert.Equal(t, "Fri, Aug 1, 2025", detail.CreditDate)
	assert.Equal(t, "₹90 to ₹95 per share", detail.PriceRange)
	assert.Equal(t, "1,600 Shares", detail.LotSize)
	assert.Equal(t, "₹24.87 Cr", detail.IssueSize)

	assert.Equal(t, "5,23,200 (20.02%)", detail.Allocation.NIISharesRaw)
	assert.Equal(t, "12,20,800 (46.72%)", detail.Allocation.RetailSharesRaw)
	assert.Equal(t, "763", detail.Allocation.MaxRetailRaw)

	require.Contains(t, detail.ApplicationRows, "retail-min")
	assert.Equal(t, int64(304000), detail.ApplicationRows["retail-min"].Amount)
	require.Contains(t, detail.ApplicationRows, "b-hni-min")
	assert.Equal(t, int64(7), detail.ApplicationRows["b-hni-min"].Lots)
	assert.Equal(t, int64(1064000), detail.ApplicationRows["b-hni-min"].Amount)

	assert.Equal(t, "https://www.investorgain.com/chr-gmp/sample-ipo/1023/", detail.GMPURL)
}

func TestExtractDetailMissingFieldsStayEmpty(t *testing.T) {
	scraper := newTestScraper()

	document, err := goquery.NewDocumentFromReader(strings.NewReader(`
		<html><body><table>
		<tr><td>IPO Open Date</td><td>Mon, Jul 28, 2025</td></tr>
		</table></body></html>`))
	require.NoError(t, err)

	detail := scraper.extractDetail(document)

	assert.Equal(t, "Mon, Jul 28, 2025", detail.OpenDate)
	assert.Empty(t, detail.PriceRange)
	assert.Empty(t, detail.LotSize)
	assert.Empty(t, detail.GMPURL)
	assert.Empty(t, detail.ApplicationRows)
}

func TestExtractActiveMentions(t *testing.T) {
	names := extractActiveMentions(
		"Some intro text. Current active IPOs are Shree Refrigerations IPO, Patel Chem IPO, Sellowrap Industries IPO. More text.")

	assert.Equal(t, []string{"Shree Refrigerations", "Patel Chem", "Sellowrap Industries"}, names)
}

func TestExtractActiveMentionsAbsent(t *testing.T) {
	assert.Nil(t, extractActiveMentions("No active sentence here."))
}

func TestMentionMatch(t *testing.T) {
	mentioned := []string{"Shree Refrigerations"}

	name, ok := mentionMatch(IPOListing{Name: "Shree Refrigerations Ltd."}, mentioned)
	assert.True(t, ok)
	assert.Equal(t, "Shree Refrigerations", name)

	_, ok = mentionMatch(IPOListing{
		Name: "SR",
		URL:  "https://www.chittorgarh.com/ipo/shree-refrigerations-ipo/2145/",
	}, mentioned)
	assert.True(t, ok)

	_, ok = mentionMatch(IPOListing{Name: "Other Company"}, mentioned)
	assert.False(t, ok)
}

func TestResolveIPOURL(t *testing.T) {
	scraper := newTestScraper()

	// Known mapping wins over the generated slug.
	assert.Equal(t,
		"https://www.chittorgarh.com/ipo/patel-chem-ipo/2153/",
		scraper.ResolveIPOURL("Patel Chem Specialities"))

	// Unknown names fall back to the slug guess.
	assert.Equal(t,
		"https://www.chittorgarh.com/ipo/acme-widgets-ipo/",
		scraper.ResolveIPOURL("Acme Widgets Ltd."))
}

func TestIsNavigationLink(t *testing.T) {
	assert.True(t, isNavigationLink("/ipo/ipo-dashboard-ipo/123/", "IPO Dashboard"))
	assert.True(t, isNavigationLink("/ipo/gmp-tracker-ipo/9/", "GMP Tracker"))
	assert.False(t, isNavigationLink("/ipo/shree-refrigerations-ipo/2145/", "Shree Refrigerations"))
}
