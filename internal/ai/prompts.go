// ABOUTME: Prompt templates for extraction, best-offer selection and expert assistance
// ABOUTME: Carries the standardization tables so the model returns canonical dataset values

package ai

const extractPrompt = `Extract the following fields from this message:
POL (Port of Origin)
POD (Port of Destination)
Container Type
Empty Pick-Up City (optional)
Commodity

Important Instructions:

1. **Standardize POL and POD values**:
If the extracted value corresponds to any of the following (or variations), return the standard value:

- "Cartagena" -> "CTG"
- "Barranquilla" -> "BAQ"
- "Buenaventura" -> "BUN"
- "Sendai" -> "SENDAI"
- "Chennai Kattupalli" -> "CHENNA (KATTUPALLI)"
- "Nanhai" (or variations) -> "NANHAI"

Special logic for NINGBO:
- If the user specifies "Ningbo Beilun" or similar -> return "NINGBO (BEILUN)"
- If the user specifies "Ningbo Meishan" or similar -> return "NINGBO (MEISHAN)"
- If the user only says "Ningbo" without a terminal -> return "NINGBO"

Other ports (return exactly as shown if detected):
"YOKOHAMA", "VERACRUZ", "SUAPE", "SAVANNAH", "SANTOS", "SANSHUI", "SANSHAN",
"ROTTERDAM", "PORT QASIM", "PORT KLANG", "PORT EVERGLADES", "PIRAEUS", "PARANAGUA", "OITA",
"NINGBO", "NHAVA SHEVA", "NEW ORLEANS", "NAGOYA", "MUNDRA", "MOJI", "LIANHUASHAN",
"LAEM CHABANG", "KARACHI", "KAOHSIUNG", "ITAPOA", "INCHEON", "HOUSTON", "HAIPHONG",
"GAOMING", "DAMAIYU", "CHARLESTON", "BUSAN", "BILBAO", "ANTWERP", "ALGECIRAS", "SUBIC BAY",
"CHENNAI", "KOBE", "NANHAI", "SENDAI", "CALLAO"

2. **Container Type**:
- If the container is a 20-foot container, return "20' DRY"
- If the container is a 40-foot container and it is of HC type, return "40' DRY HC"
- Otherwise, if it is a 40-foot container, return "40' DRY"

3. **Empty Pick-Up City**:
- If empty pick up city is cartagena or similar, return CTG
- If empty pick up city is barranquilla or similar, return BAQ
- If empty pick up city is medellin or similar, return MED
- If empty pick up city is cali or similar, return CALI
- If empty pick up city is not specified, return TODOS

4. **Commodity**:
- If commodity is scrap or similar, return SCRAP METAL
- If commodity is gelatina or similar, return GELATINA
- If commodity is bebidas or similar, return BEBIDAS

5. If any of the fields are not present in the message, leave them as an empty
string (except empty_pickup, which defaults to "TODOS").

Return a JSON dictionary with the following structure and nothing else:

{
"pol": "...",
"pod": "...",
"empty_pickup": "...",
"commodity": "...",
"type_container": "..."
}`

const selectPrompt = `Using the input data and candidate dataset provided by the
user, find the best matching freight offer.

**Matching Criteria**:
1. You must strictly match the following fields:
- Port of Origin (pol)
- Port of Destination (pod)
- Container Type (type_container)

2. **Empty Pick-Up City Logic**:
- If the user did not provide an empty_pickup, ignore this field and consider all records.
- If the user did provide an empty_pickup, only accept exact matches in the
  dataset, or records where the empty_pickup field is "TODOS".

**Interpretation Rules**:
- If any field (pol, pod, or type_container) in a row does not exactly match
  the interpreted user request, discard that row.
- Do not infer or guess missing values. If there is any ambiguity, leave the
  result field empty.
- For ports with known terminal variations (e.g. "NINGBO", "NINGBO (BEILUN)",
  "NINGBO (MEISHAN)"): if the request is "NINGBO", match all variants; if the
  request is "NINGBO (BEILUN)" or similar, match only that variant.

**Selection Rule**:
- From the valid matches, return the entry with the lowest value in "cost".

**Important Note**:
- The values in the output must match the ones from the dataset exactly. If
  the dataset value for "empty_pickup" is "TODOS", return "TODOS" even if the
  user requested a specific city.

**Output Format**:
Return only this JSON dictionary, with empty strings for unknown fields:

{
"pol": "...",
"pod": "...",
"cost": "...",
"FDO": "",
"FDD": "",
"shipping_line": "",
"validity": "",
"type_container": "...",
"empty_pickup": "..."
}`

const assistPrompt = `You are an expert assistant in international trade and
freight forwarding, dedicated to supporting our sales and commercial teams.
You possess in-depth knowledge of global logistics, shipping regulations,
customs procedures, documentation requirements, and freight rate optimization.
Your role is to provide clear, accurate, and actionable advice to our
commercial staff regarding customer inquiries, freight quotes, route
optimization, carrier selection, and supply chain solutions. When responding,
focus on delivering professional recommendations and practical insights that
enable our team to effectively communicate with clients and secure competitive
freight solutions. Ask clarifying questions when necessary and ensure your
responses are tailored to our company's best practices and market standards.`
